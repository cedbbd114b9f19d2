package util

import (
	"sync"
	"sync/atomic"
	"time"
)

// TrackedWaitGroup is a sync.WaitGroup which tells the count of pending tasks and supports timed waiting
type TrackedWaitGroup struct {
	wg    sync.WaitGroup
	count int64
}

// Add adds delta to the count of pending tasks
func (twg *TrackedWaitGroup) Add(delta int) {
	twg.wg.Add(delta)
	atomic.AddInt64(&twg.count, int64(delta))
}

// Done marks one task as finished
func (twg *TrackedWaitGroup) Done() {
	atomic.AddInt64(&twg.count, -1)
	twg.wg.Done()
}

// Peek returns the count of pending tasks
func (twg *TrackedWaitGroup) Peek() int {
	return int(atomic.LoadInt64(&twg.count))
}

// Wait waits for all tasks to finish
func (twg *TrackedWaitGroup) Wait() {
	twg.wg.Wait()
}

// WaitTimeout waits for all tasks to finish or until timeout
//
// Returns false on timeout. The internal waiting goroutine is left behind until the tasks finish.
func (twg *TrackedWaitGroup) WaitTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		twg.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
