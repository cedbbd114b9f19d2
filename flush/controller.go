package flush

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/buffer/recordbuffer"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/util"
)

// Controller decides when buffered records are flushed and enforces single-flight and backoff
//
// Three triggers launch flushes:
//   - threshold: as soon as the buffer holds Threshold records, flush that many oldest records
//   - timer: while the buffer is not empty, flush everything if the last successful flush is older than TimeInterval
//   - forced: ForceFlush drains everything synchronously, ignoring the cooldown after failures
//
// Threshold and timer flushes run on the worker pool so that watchers and producers never wait for network I/O.
type Controller struct {
	logger     logger.Logger
	buffer     *recordbuffer.Buffer
	executor   *Executor
	policy     Policy
	pool       *util.WorkerPool
	metrics    controllerMetrics
	state      *flushState
	now        func() time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	appended   chan struct{} // wakes up threshold watcher when the threshold is reached
	flushEnded chan struct{} // wakes up threshold watcher when a flush attempt completes
	timerArmed int32
}

// NewController creates a Controller. Start must be called to launch its watchers.
func NewController(parentLogger logger.Logger, buffer *recordbuffer.Buffer, executor *Executor, policy Policy,
	pool *util.WorkerPool, metricFactory *base.MetricFactory) *Controller {

	if policy.Threshold < 1 {
		policy.Threshold = defs.DefaultFlushThreshold
	}
	if policy.TimeInterval <= 0 {
		policy.TimeInterval = defs.DefaultTimeInterval
	}
	if policy.FailedFlushWait < 0 {
		policy.FailedFlushWait = defs.DefaultFailedFlushWait
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		logger:     parentLogger.WithField(defs.LabelPart, "FlushController"),
		buffer:     buffer,
		executor:   executor,
		policy:     policy,
		pool:       pool,
		metrics:    newControllerMetrics(metricFactory),
		state:      newFlushState(time.Now()),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		appended:   make(chan struct{}, 1),
		flushEnded: make(chan struct{}, 1),
		timerArmed: 0,
	}
}

// Start launches the threshold watcher, and the timer watcher if the buffer is not empty
func (c *Controller) Start() {
	if !c.pool.TrySubmit("thresholdWatcher", c.runThresholdWatcher) {
		c.logger.Errorf("BUG: failed to launch threshold watcher, %d of %d workers busy", c.pool.Busy(), c.pool.Size())
	}
	if c.buffer.Len() > 0 {
		c.armTimer()
	}
}

// OnAppended must be called after each append to the buffer, with the buffer size returned by the append
func (c *Controller) OnAppended(size int) {
	if size >= c.policy.Threshold {
		notify(c.appended)
	}
	if size >= 1 && atomic.LoadInt32(&c.timerArmed) == 0 {
		c.armTimer()
	}
}

// ForceFlush flushes everything in the buffer synchronously, regardless of the cooldown after failures
//
// It waits for any in-progress flush to complete first, bounded by ctx. Returns true if the buffer was empty or the
// flush succeeded.
func (c *Controller) ForceFlush(ctx context.Context) bool {
	for {
		idle := c.state.idleChannel()
		if c.state.tryAcquire() {
			break
		}
		if c.state.Phase() == PhaseShuttingDown {
			c.logger.Debug("forced flush skipped: shutting down")
			return false
		}
		select {
		case <-idle:
		case <-ctx.Done():
			c.logger.Warnf("forced flush gave up waiting for the in-progress flush: %s", ctx.Err())
			return false
		}
	}

	snapshot := c.buffer.SnapshotPrefix(-1)
	if snapshot.Len() == 0 {
		c.state.release()
		return true
	}
	c.metrics.triggersTotal.WithLabelValues(TriggerForced).Inc()
	c.metrics.flushing.Set(1)
	succeeded := c.executor.Execute(ctx, base.LogBatch{Records: snapshot.Records, Trigger: TriggerForced})
	c.completeFlush(snapshot, succeeded)
	return succeeded
}

// Halt enters ShuttingDown permanently and stops all watchers
//
// Flushes in progress are aborted through their context; no new flushes are launched afterwards
func (c *Controller) Halt() {
	c.state.shutdown()
	c.cancel()
}

// Phase returns the current phase
func (c *Controller) Phase() Phase {
	return c.state.Phase()
}

// LastFlushAt returns the completion time of the last successful flush, or the creation time if none yet
func (c *Controller) LastFlushAt() time.Time {
	return c.state.LastFlushAt()
}

// LastFailedFlushAt returns the completion time of the last failed flush, or zero time if none
func (c *Controller) LastFailedFlushAt() time.Time {
	return c.state.LastFailedFlushAt()
}

// launchResult tells the outcome of tryLaunchFlush
type launchResult int

const (
	launched launchResult = iota
	skippedBusy
	skippedBackoff
	skippedTooFew
	skippedRefused
)

// tryLaunchFlush launches an asynchronous flush of up to maxCount oldest records if the gate is open
//
// Returns the cooldown remaining when the result is skippedBackoff
func (c *Controller) tryLaunchFlush(trigger string, maxCount int, minCount int) (launchResult, time.Duration) {
	if remaining := c.state.cooldownRemaining(c.now(), c.policy.FailedFlushWait); remaining > 0 {
		c.metrics.backoffSkipsTotal.WithLabelValues(trigger).Inc()
		return skippedBackoff, remaining
	}
	if !c.state.tryAcquire() {
		return skippedBusy, 0
	}
	snapshot := c.buffer.SnapshotPrefix(maxCount)
	if snapshot.Len() == 0 || snapshot.Len() < minCount {
		c.state.release()
		return skippedTooFew, 0
	}
	c.metrics.flushing.Set(1)
	if !c.pool.TrySubmit("flush-"+trigger, func() { c.runFlush(trigger, snapshot) }) {
		c.metrics.flushing.Set(0)
		c.metrics.refusedTotal.WithLabelValues(trigger).Inc()
		c.state.release()
		return skippedRefused, 0
	}
	c.metrics.triggersTotal.WithLabelValues(trigger).Inc()
	return launched, 0
}

func (c *Controller) runFlush(trigger string, snapshot recordbuffer.Snapshot) {
	succeeded := false
	defer func() {
		c.completeFlush(snapshot, succeeded)
	}()
	succeeded = c.executor.Execute(c.ctx, base.LogBatch{Records: snapshot.Records, Trigger: trigger})
}

// completeFlush records the result, leaves Flushing and wakes up the threshold watcher
func (c *Controller) completeFlush(snapshot recordbuffer.Snapshot, succeeded bool) {
	if succeeded {
		removed := c.buffer.DiscardSnapshot(snapshot)
		c.metrics.discardedTotal.Add(float64(removed))
		if lost := snapshot.Len() - removed; lost > 0 {
			c.logger.Debugf("%d sent records have been evicted by overflow during the flush", lost)
			c.metrics.lostDuringSendTotal.Add(float64(lost))
		}
		c.state.setLastFlushAt(c.now())
	} else {
		c.state.setLastFailedFlushAt(c.now())
	}
	c.metrics.flushing.Set(0)
	c.state.release()
	notify(c.flushEnded)
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
