package test

import (
	"testing"

	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/testdata"
	"github.com/stretchr/testify/assert"
)

func TestBenchmarkHook(t *testing.T) {
	defs.EnableTestMode()
	result := RunBenchmarkHook(testdata.GetSampleLogPath(), 10)
	assert.Equal(t, 130, result.Input)
	assert.Equal(t, result.Input, result.Appended)
	assert.Equal(t, result.Input, result.Sent)
}

func TestBenchmarkShipper(t *testing.T) {
	defs.EnableTestMode()
	result := RunBenchmarkShipper(testdata.GetSampleLogPath(), true, 10, testdata.GetConfigPath())
	assert.Equal(t, 130, result.Input)
	assert.Equal(t, result.Input, result.Appended)
	assert.Equal(t, result.Input, result.Sent)
}
