package util

import (
	"sync"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/defs"
)

// WorkerPool runs background tasks on a bounded number of goroutines
//
// Submission never blocks: a task is refused when all slots are taken or the pool is closed. Callers are expected
// to retry on their next trigger. Panics from tasks are recovered and logged.
type WorkerPool struct {
	logger    logger.Logger
	slots     chan struct{}
	running   TrackedWaitGroup
	closeLock sync.RWMutex
	closed    bool
}

// NewWorkerPool creates a WorkerPool of the given max concurrency
func NewWorkerPool(parentLogger logger.Logger, size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		logger:    parentLogger.WithField(defs.LabelPart, "WorkerPool"),
		slots:     make(chan struct{}, size),
		running:   TrackedWaitGroup{},
		closeLock: sync.RWMutex{},
		closed:    false,
	}
}

// TrySubmit launches the task if there is a free slot
//
// Returns false if the task is refused
func (pool *WorkerPool) TrySubmit(name string, task func()) bool {
	pool.closeLock.RLock()
	defer pool.closeLock.RUnlock()
	if pool.closed {
		pool.logger.Debugf("refused task '%s': pool closed", name)
		return false
	}
	select {
	case pool.slots <- struct{}{}:
	default:
		pool.logger.Debugf("refused task '%s': all %d slots busy", name, cap(pool.slots))
		return false
	}
	pool.running.Add(1)
	go pool.run(name, task)
	return true
}

func (pool *WorkerPool) run(name string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			pool.logger.Errorf("BUG: task '%s' panicked: %s", name, FormatPanic(r))
		}
		<-pool.slots
		pool.running.Done()
	}()
	task()
}

// Busy returns the count of running tasks
func (pool *WorkerPool) Busy() int {
	return pool.running.Peek()
}

// Size returns the max count of concurrent tasks
func (pool *WorkerPool) Size() int {
	return cap(pool.slots)
}

// Close makes the pool refuse all further tasks. Running tasks are not affected.
func (pool *WorkerPool) Close() {
	pool.closeLock.Lock()
	defer pool.closeLock.Unlock()
	pool.closed = true
}

// Wait waits for all running tasks to finish or until timeout. Returns false on timeout.
func (pool *WorkerPool) Wait(timeout time.Duration) bool {
	return pool.running.WaitTimeout(timeout)
}
