package util

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackedWaitGroup(t *testing.T) {
	twg := &TrackedWaitGroup{}
	assert.Equal(t, 0, twg.Peek())
	twg.Add(1)
	twg.Add(1)
	assert.Equal(t, 2, twg.Peek())
	twg.Done()
	assert.Equal(t, 1, twg.Peek())

	var doneCalled int64
	go func() {
		atomic.AddInt64(&doneCalled, 1)
		twg.Done()
	}()

	twg.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&doneCalled))
	assert.Equal(t, 0, twg.Peek())
}

func TestTrackedWaitGroupTimeout(t *testing.T) {
	twg := &TrackedWaitGroup{}
	assert.True(t, twg.WaitTimeout(10*time.Millisecond))

	twg.Add(1)
	assert.False(t, twg.WaitTimeout(50*time.Millisecond))

	go func() {
		time.Sleep(20 * time.Millisecond)
		twg.Done()
	}()
	assert.True(t, twg.WaitTimeout(time.Second))
}
