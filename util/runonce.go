package util

import (
	"sync/atomic"
)

// NewRunOnce wraps f to be called at most once, by whichever caller comes first
//
// The wrapper returns true only to the caller that invoked f. Unlike sync.Once, other callers return immediately
// without waiting for f to finish.
func NewRunOnce(f func()) func() bool {
	var started atomic.Bool
	return func() bool {
		if !started.CompareAndSwap(false, true) {
			return false
		}
		f()
		return true
	}
}
