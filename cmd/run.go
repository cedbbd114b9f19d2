package cmd

import (
	"context"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/run"
	"github.com/relex/log-shipper/util"
)

type runCommandState struct {
	Config      string `help:"Configuration file path"`
	MetricsAddr string `help:"The listener address to expose Prometheus metrics, empty to disable"`
	TestMode    bool   `help:"Use test mode config: short timeouts"`
}

var runCmd runCommandState = runCommandState{
	Config:      "config.yml",
	MetricsAddr: ":9336",
	TestMode:    false,
}

func (cmd *runCommandState) run(args []string) {
	if cmd.TestMode {
		defs.EnableTestMode()
	}

	if len(cmd.MetricsAddr) == 0 {
		run.Run(cmd.Config)
		return
	}

	msrv := util.LaunchMetricsListener(cmd.MetricsAddr)

	run.Run(cmd.Config)

	if err := msrv.Shutdown(context.Background()); err != nil {
		logger.Errorf("error shutting down metrics listener: %v", err)
	}
}
