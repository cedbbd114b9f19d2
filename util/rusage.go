package util

import (
	"time"

	"golang.org/x/sys/unix"
)

// GetProcessCPUTimes returns the user and system CPU time consumed by this process so far
func GetProcessCPUTimes() (time.Duration, time.Duration, error) {
	usage := unix.Rusage{}
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0, 0, err
	}
	return time.Duration(usage.Utime.Nano()), time.Duration(usage.Stime.Nano()), nil
}
