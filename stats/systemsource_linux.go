//go:build linux

package stats

import (
	"sync"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/util"
	"golang.org/x/sys/unix"
)

// SystemSource reports system memory, CPU usage of this process and filesystem space
type SystemSource struct {
	logger       logger.Logger
	config       Config
	cpuLock      sync.Mutex
	lastCPUTime  time.Duration // user + system time of this process at the previous sample
	lastSampleAt time.Time
}

// NewSystemSource creates a SystemSource for the enabled groups
func NewSystemSource(config Config) *SystemSource {
	src := &SystemSource{
		logger:  logger.WithField(defs.LabelComponent, "SystemStats"),
		config:  config,
		cpuLock: sync.Mutex{},
	}
	if config.CPU {
		src.lastCPUTime, _ = processCPUTime()
		src.lastSampleAt = time.Now()
	}
	return src
}

// GetStats samples enabled groups. Groups failing to be read are left out.
func (src *SystemSource) GetStats() map[string]float64 {
	result := make(map[string]float64, 10)
	if src.config.Memory {
		info := unix.Sysinfo_t{}
		if err := unix.Sysinfo(&info); err != nil {
			src.logger.Debugf("failed to read sysinfo: %s", err.Error())
		} else {
			unit := float64(info.Unit)
			result["memory.total"] = float64(info.Totalram) * unit
			result["memory.free"] = float64(info.Freeram) * unit
		}
	}
	if src.config.CPU {
		if percent, ok := src.sampleCPUPercent(); ok {
			result["cpu.processPercent"] = percent
		}
	}
	if src.config.Filesystem {
		path := src.config.FilesystemPath
		if path == "" {
			path = "/"
		}
		fs := unix.Statfs_t{}
		if err := unix.Statfs(path, &fs); err != nil {
			src.logger.Debugf("failed to statfs '%s': %s", path, err.Error())
		} else {
			blockSize := float64(fs.Bsize)
			result["fs.total"] = float64(fs.Blocks) * blockSize
			result["fs.free"] = float64(fs.Bfree) * blockSize
			result["fs.available"] = float64(fs.Bavail) * blockSize
		}
	}
	return result
}

// sampleCPUPercent returns CPU usage of this process since the previous sample, 100 per fully used core
func (src *SystemSource) sampleCPUPercent() (float64, bool) {
	cpuTime, err := processCPUTime()
	if err != nil {
		src.logger.Debugf("failed to read rusage: %s", err.Error())
		return 0, false
	}
	now := time.Now()

	src.cpuLock.Lock()
	defer src.cpuLock.Unlock()
	elapsed := now.Sub(src.lastSampleAt)
	used := cpuTime - src.lastCPUTime
	src.lastCPUTime = cpuTime
	src.lastSampleAt = now
	if elapsed <= 0 {
		return 0, false
	}
	return float64(used) / float64(elapsed) * 100.0, true
}

func processCPUTime() (time.Duration, error) {
	user, system, err := util.GetProcessCPUTimes()
	return user + system, err
}
