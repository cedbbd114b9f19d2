// Package lineinput provides line-based inputs with assembling of multi-line records, e.g. stack traces
package lineinput

import (
	"fmt"
	"os"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
)

// StdinSource is the Source of records read from standard input
const StdinSource = "stdin"

// Config defines which line inputs to launch
type Config struct {
	Stdin      bool   `yaml:"stdin"`      // read records from standard input until EOF
	TCPAddress string `yaml:"tcpAddress"` // listen for records on the TCP address if not empty, e.g. "localhost:5170"
	MultiLine  bool   `yaml:"multiLine"`  // treat indented lines as continuation of the previous record
}

// DefaultConfig returns the Config with no inputs and multi-line records enabled
func DefaultConfig() Config {
	return Config{
		Stdin:      false,
		TCPAddress: "",
		MultiLine:  true,
	}
}

// Enabled tells whether any input is configured
func (cfg Config) Enabled() bool {
	return cfg.Stdin || cfg.TCPAddress != ""
}

// Launch starts all configured inputs in background
//
// Returns the actual TCP address if enabled, and the stopped signals of all launched inputs
func Launch(parentLogger logger.Logger, cfg Config, appender base.RecordAppender,
	stopRequest channels.Awaitable) (string, []channels.Awaitable, error) {

	stoppedSignals := make([]channels.Awaitable, 0, 2)
	boundAddr := ""
	if cfg.TCPAddress != "" {
		lsnr, addr, err := NewTCPListener(parentLogger, cfg.TCPAddress, cfg.MultiLine, appender, stopRequest)
		if err != nil {
			return "", nil, fmt.Errorf("failed to listen on %s: %w", cfg.TCPAddress, err)
		}
		lsnr.Start()
		boundAddr = addr
		stoppedSignals = append(stoppedSignals, lsnr.Stopped())
	}
	if cfg.Stdin {
		input := NewStreamInput(parentLogger, StdinSource, os.Stdin, cfg.MultiLine, appender, stopRequest)
		input.Start()
		stoppedSignals = append(stoppedSignals, input.Stopped())
	}
	return boundAddr, stoppedSignals, nil
}
