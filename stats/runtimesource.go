package stats

import (
	"runtime"
)

// RuntimeSource reports memory and goroutines of the Go runtime
type RuntimeSource struct{}

// NewRuntimeSource creates a RuntimeSource
func NewRuntimeSource() *RuntimeSource {
	return &RuntimeSource{}
}

// GetStats reads runtime memory statistics, which briefly stops the world
func (src *RuntimeSource) GetStats() map[string]float64 {
	memStats := runtime.MemStats{}
	runtime.ReadMemStats(&memStats)
	return map[string]float64{
		"memory.heapAlloc":   float64(memStats.HeapAlloc),
		"memory.heapInuse":   float64(memStats.HeapInuse),
		"memory.sys":         float64(memStats.Sys),
		"memory.gcCount":     float64(memStats.NumGC),
		"runtime.goroutines": float64(runtime.NumGoroutine()),
	}
}
