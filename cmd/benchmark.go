package cmd

import (
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/test"
)

type benchmarkCommandState struct {
	Input  string `help:"Input file path of text logs"`
	Output string `help:"Output type:\n'': (empty) send as configured\n'null': abandon all output"`
	Repeat int    `help:"Repeat times"`
	Config string `help:"Configuration file path"`
}

var benchCmd = benchmarkCommandState{
	Input:  "testdata/sample.log",
	Output: "null",
	Config: "testdata/config_sample.yml",
	Repeat: 10000,
}

func (cmd *benchmarkCommandState) runBenchmarkHookCommand(_ []string) {
	defs.EnableTestMode()
	test.RunBenchmarkHook(cmd.Input, cmd.Repeat)
}

func (cmd *benchmarkCommandState) runBenchmarkShipperCommand(_ []string) {
	defs.EnableTestMode()
	test.RunBenchmarkShipper(cmd.Input, cmd.Output == "null", cmd.Repeat, cmd.Config)
}
