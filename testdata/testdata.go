// Package testdata provides access to shared sample logs and config for testing
package testdata

import (
	"path/filepath"
	"runtime"
)

var absoluteDirPath string

func init() {
	_, thisFile, _, _ := runtime.Caller(0)
	absoluteDirPath = filepath.Dir(thisFile)
}

// GetConfigPath returns the path of the sample config file
func GetConfigPath() string {
	return filepath.Join(absoluteDirPath, "config_sample.yml")
}

// GetSampleLogPath returns the path of the sample text log with multi-line records
func GetSampleLogPath() string {
	return filepath.Join(absoluteDirPath, "sample.log")
}
