// Package cmd provides list of commands including self-benchmarks
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "log-shipper buffers logs from stdin or TCP and ships them in batches to a HTTP ingestion endpoint", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("benchmark <type> ...", "Run benchmark of specified type", &benchCmd, nil)
	config.AddCmdWithArgs("benchmark hook ...", "Benchmark logrus hook with null output", nil, benchCmd.runBenchmarkHookCommand)
	config.AddCmdWithArgs("benchmark shipper ...", "Benchmark shipper with TCP input and null or configured output", nil, benchCmd.runBenchmarkShipperCommand)
	config.AddCmdWithArgs("run ...", "Run shipper", &runCmd, runCmd.run)
}

// Execute parses the command line and runs the specified command
func Execute() {
	config.Execute()
}
