package test

import (
	"runtime"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/util"
)

// CostTracker tracks CPU usage and memory allocations
type CostTracker struct {
	initRealTime      time.Time
	initUserTime      time.Duration
	initSystemTime    time.Duration
	initNumHeapAllocs uint64
}

// CostReport contains measurements since StartCostTracking()
type CostReport struct {
	RealTime      time.Duration
	UserTime      time.Duration
	SystemTime    time.Duration
	NumHeapAllocs uint64
	GCCPUFraction float64
}

// StartCostTracking creates a cost tracker and starts tracking
func StartCostTracking() *CostTracker {
	runtime.GC()
	userTime, systemTime := mustGetCPUTimes()
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return &CostTracker{
		initRealTime:      time.Now(),
		initUserTime:      userTime,
		initSystemTime:    systemTime,
		initNumHeapAllocs: memStats.Mallocs,
	}
}

// Report reports measurements since the tracker was started
func (ct *CostTracker) Report() CostReport {
	runtime.GC()
	realTime := time.Since(ct.initRealTime)
	userTime, systemTime := mustGetCPUTimes()
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return CostReport{
		RealTime:      realTime,
		UserTime:      userTime - ct.initUserTime,
		SystemTime:    systemTime - ct.initSystemTime,
		NumHeapAllocs: memStats.Mallocs - ct.initNumHeapAllocs,
		GCCPUFraction: memStats.GCCPUFraction,
	}
}

func mustGetCPUTimes() (time.Duration, time.Duration) {
	userTime, systemTime, err := util.GetProcessCPUTimes()
	if err != nil {
		logger.Panic("failed to get resource usage: ", err)
	}
	return userTime, systemTime
}
