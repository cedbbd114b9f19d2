package stats

import (
	"runtime"
	"testing"

	"github.com/relex/log-shipper/base"
	"github.com/stretchr/testify/assert"
)

func TestMultiSourceOverride(t *testing.T) {
	first := base.MetricsSourceFunc(func() map[string]float64 {
		return map[string]float64{"a": 1, "b": 2}
	})
	second := base.MetricsSourceFunc(func() map[string]float64 {
		return map[string]float64{"b": 20, "c": 30}
	})
	merged := NewMultiSource(first, nil, second).GetStats()
	assert.Equal(t, map[string]float64{"a": 1, "b": 20, "c": 30}, merged)
}

func TestRuntimeSource(t *testing.T) {
	result := NewRuntimeSource().GetStats()
	assert.Greater(t, result["memory.sys"], 0.0)
	assert.GreaterOrEqual(t, result["runtime.goroutines"], 1.0)
}

func TestNewSource(t *testing.T) {
	extra := base.MetricsSourceFunc(func() map[string]float64 {
		return map[string]float64{"shipper.buffered": 7}
	})
	result := NewSource(DefaultConfig(), extra).GetStats()
	assert.Equal(t, 7.0, result["shipper.buffered"])
	assert.Contains(t, result, "memory.heapAlloc")
	if runtime.GOOS == "linux" {
		assert.Greater(t, result["memory.total"], 0.0)
		assert.Greater(t, result["fs.total"], 0.0)
		assert.Contains(t, result, "cpu.processPercent")
	}

	none := NewSource(Config{}).GetStats()
	assert.Empty(t, none)
}
