package run

import (
	"fmt"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/input/lineinput"
	"github.com/relex/log-shipper/output/httpoutput"
	"github.com/relex/log-shipper/output/nulloutput"
	"github.com/relex/log-shipper/shipper"
	"github.com/relex/log-shipper/stats"
	"github.com/relex/log-shipper/util"
)

// Loader loads configuration from file and prepares the environments to be launched
//
// Loader takes care of everything derived from the config file, but doesn't trigger anything automatically.
// Sender, shipper and inputs are exposed in place of a simple main loop to allow customization, see Run()
type Loader struct {
	filepath string // config file path

	Config
	MetricFactory *base.MetricFactory
}

// NewLoaderFromConfigFile loads the config file and creates a Loader with metrics named under metricPrefix
func NewLoaderFromConfigFile(filepath string, metricPrefix string) (*Loader, error) {
	config, configErr := LoadConfigFile(filepath)
	if configErr != nil {
		return nil, fmt.Errorf("%s: %w", filepath, configErr)
	}
	if dump, err := util.MarshalYaml(config.Redacted()); err == nil {
		logger.Debugf("loaded %s:\n%s", filepath, dump)
	}
	return &Loader{
		filepath:      filepath,
		Config:        *config,
		MetricFactory: base.NewMetricFactory(metricPrefix, nil, nil),
	}, nil
}

// NewSender creates the configured Sender
func (loader *Loader) NewSender(parentLogger logger.Logger) (base.Sender, error) {
	if loader.NullOutput != nil {
		return nulloutput.NewSender(parentLogger, *loader.NullOutput, loader.MetricFactory), nil
	}
	sender, err := httpoutput.NewSender(parentLogger, loader.Output, loader.MetricFactory)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return sender, nil
}

// LaunchShipper launches a Shipper in background and returns it
func (loader *Loader) LaunchShipper(parentLogger logger.Logger, sender base.Sender) *shipper.Shipper {
	return shipper.Launch(parentLogger, loader.Shipper, sender, stats.NewSource(loader.Stats), loader.MetricFactory)
}

// LaunchInputs starts all inputs in background and returns (TCP address, stopped signal, shutdown function)
//
// The returned address is final, e.g. assigned random port if it's 0 in config file, or empty if there is no TCP input.
// The stopped signal is triggered when all inputs have ended by themselves, e.g. at the end of stdin.
//
// The returned shutdown function only shuts down the inputs, not the shipper
func (loader *Loader) LaunchInputs(parentLogger logger.Logger, appender base.RecordAppender) (string, channels.Awaitable, func(), error) {
	stopRequest := channels.NewSignalAwaitable()
	addr, inputStoppedSignals, err := lineinput.Launch(parentLogger, loader.Input, appender, stopRequest)
	if err != nil {
		return "", nil, nil, fmt.Errorf("input: %w", err)
	}
	allStopped := channels.AllAwaitables(inputStoppedSignals...)

	return addr, allStopped, func() {
		stopRequest.Signal()
		if !allStopped.Wait(defs.ListenerStopTimeout) {
			parentLogger.Warnf("timeout waiting for inputs to stop")
		}
	}, nil
}
