package main

import (
	"runtime"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/cmd"
)

var version string // set by -ldflags "-X main.version=..."

func main() {
	logger.Infof("log-shipper %s, GOMAXPROCS=%d", version, runtime.GOMAXPROCS(0))

	base.NewMetricFactory("log_shipper_", nil, nil).
		AddOrGetGauge("info", "log-shipper application information", []string{"version"}, []string{version}).
		Set(1)

	cmd.Execute()
}
