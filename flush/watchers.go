package flush

import (
	"sync/atomic"
	"time"
)

// runThresholdWatcher launches threshold flushes until the controller is halted
//
// It sleeps until something may have changed: an append reaching the threshold, the end of a flush or the end of
// a cooldown
func (c *Controller) runThresholdWatcher() {
	c.logger.Debug("threshold watcher started")
	defer c.logger.Debug("threshold watcher stopped")

	for {
		var retry <-chan time.Time
		if c.buffer.Len() >= c.policy.Threshold {
			result, remaining := c.tryLaunchFlush(TriggerThreshold, c.policy.Threshold, c.policy.Threshold)
			if result == skippedBackoff {
				retry = time.After(remaining)
			}
		}
		select {
		case <-c.ctx.Done():
			return
		case <-c.appended:
		case <-c.flushEnded:
		case <-retry:
		}
	}
}

// armTimer launches the timer watcher unless it's already running
func (c *Controller) armTimer() {
	if c.ctx.Err() != nil {
		return
	}
	if !atomic.CompareAndSwapInt32(&c.timerArmed, 0, 1) {
		return
	}
	if !c.pool.TrySubmit("timerWatcher", c.runTimerWatcher) {
		atomic.StoreInt32(&c.timerArmed, 0)
		c.logger.Warnf("failed to arm timer watcher, %d of %d workers busy", c.pool.Busy(), c.pool.Size())
	}
}

// runTimerWatcher checks staleness immediately and then every TimeInterval, until the buffer is empty
func (c *Controller) runTimerWatcher() {
	ticker := time.NewTicker(c.policy.TimeInterval)
	defer ticker.Stop()

	for c.buffer.Len() > 0 {
		c.checkStaleness()
		select {
		case <-c.ctx.Done():
			atomic.StoreInt32(&c.timerArmed, 0)
			return
		case <-ticker.C:
		}
	}
	atomic.StoreInt32(&c.timerArmed, 0)
	// an append may have seen the flag still set right before it was cleared
	if c.buffer.Len() > 0 {
		c.armTimer()
	}
}

func (c *Controller) checkStaleness() {
	if c.now().Sub(c.state.LastFlushAt()) <= c.policy.TimeInterval {
		return
	}
	c.tryLaunchFlush(TriggerTimer, -1, 1)
}
