// Package run runs the actual log shipper
package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/defs"
)

// Run runs the shipper with line inputs until stopped by signals or by the end of all inputs
func Run(configFile string) {
	loader, loaderErr := NewLoaderFromConfigFile(configFile, "logshipper_")
	if loaderErr != nil {
		logger.Fatal(loaderErr)
	}

	runLogger := logger.WithField(defs.LabelComponent, "Launcher")

	sender, senderErr := loader.NewSender(logger.Root())
	if senderErr != nil {
		logger.Fatal(senderErr)
	}
	shpr := loader.LaunchShipper(logger.Root(), sender)

	_, inputsStopped, shutdownInputs, inputErr := loader.LaunchInputs(logger.Root(), shpr)
	if inputErr != nil {
		shpr.Shutdown(context.Background())
		logger.Fatal(inputErr)
	}

	// wait for shutdown signal or the end of inputs
	{
		sigChan := make(chan os.Signal, 10)
		signal.Notify(sigChan, syscall.SIGINT)
		signal.Notify(sigChan, syscall.SIGTERM)
		inputsEnded := make(chan struct{})
		if loader.Input.Enabled() {
			go func() {
				inputsStopped.WaitForever()
				close(inputsEnded)
			}()
		} else {
			runLogger.Warn("no input enabled")
		}
		select {
		case s := <-sigChan:
			runLogger.Infof("received %s, shutting down", s)
		case <-inputsEnded:
			runLogger.Info("all inputs ended, shutting down")
		}
	}

	shutdownInputs()

	ctx, cancel := context.WithTimeout(context.Background(), defs.ShutdownTimeout)
	defer cancel()
	shpr.Shutdown(ctx)
	runLogger.Info("clean exit")
}
