// Package flush decides when buffered records are flushed and runs the flush attempts
package flush

import (
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the state of a flush controller
type Phase int32

// Phases of flush controller. ShuttingDown is terminal.
const (
	PhaseIdle Phase = iota
	PhaseFlushing
	PhaseShuttingDown
)

func (phase Phase) String() string {
	switch phase {
	case PhaseIdle:
		return "idle"
	case PhaseFlushing:
		return "flushing"
	case PhaseShuttingDown:
		return "shuttingDown"
	default:
		return "unknown"
	}
}

// Triggers of flush attempts, used in logs, batches and metric labels
const (
	TriggerThreshold = "threshold"
	TriggerTimer     = "timer"
	TriggerForced    = "forced"
)

// Policy defines when to flush and how to back off after failures
type Policy struct {
	Threshold       int           // flush this many oldest records as soon as the buffer holds as many
	TimeInterval    time.Duration // flush everything when the last successful flush is older than this
	StatsInterval   time.Duration // interval of stats reporting, not used by the controller itself
	FailedFlushWait time.Duration // cooldown after a failed flush, for threshold and timer triggers only
}

// flushState tracks the single-flight phase and the times of the last flush results
//
// Flushing can only be entered from Idle; leaving Flushing wakes up everyone waiting on idleChannel
type flushState struct {
	phase             int32
	lastFlushAt       int64 // unix nanoseconds
	lastFailedFlushAt int64 // unix nanoseconds, 0 if never failed
	idleLock          sync.Mutex
	idleSignal        chan struct{}
}

func newFlushState(now time.Time) *flushState {
	return &flushState{
		phase:             int32(PhaseIdle),
		lastFlushAt:       now.UnixNano(),
		lastFailedFlushAt: 0,
		idleLock:          sync.Mutex{},
		idleSignal:        make(chan struct{}),
	}
}

func (state *flushState) Phase() Phase {
	return Phase(atomic.LoadInt32(&state.phase))
}

// tryAcquire enters Flushing from Idle
func (state *flushState) tryAcquire() bool {
	return atomic.CompareAndSwapInt32(&state.phase, int32(PhaseIdle), int32(PhaseFlushing))
}

// release returns to Idle from Flushing, unless shutdown has begun
func (state *flushState) release() {
	atomic.CompareAndSwapInt32(&state.phase, int32(PhaseFlushing), int32(PhaseIdle))
	state.broadcastIdle()
}

// shutdown enters the terminal ShuttingDown phase
func (state *flushState) shutdown() {
	atomic.StoreInt32(&state.phase, int32(PhaseShuttingDown))
	state.broadcastIdle()
}

// idleChannel returns a channel to be closed at the next release or shutdown
//
// It must be fetched before tryAcquire to not miss a release in between
func (state *flushState) idleChannel() <-chan struct{} {
	state.idleLock.Lock()
	defer state.idleLock.Unlock()
	return state.idleSignal
}

func (state *flushState) broadcastIdle() {
	state.idleLock.Lock()
	defer state.idleLock.Unlock()
	close(state.idleSignal)
	state.idleSignal = make(chan struct{})
}

func (state *flushState) LastFlushAt() time.Time {
	return time.Unix(0, atomic.LoadInt64(&state.lastFlushAt))
}

func (state *flushState) setLastFlushAt(tm time.Time) {
	atomic.StoreInt64(&state.lastFlushAt, tm.UnixNano())
}

// LastFailedFlushAt returns zero time if no flush has ever failed
func (state *flushState) LastFailedFlushAt() time.Time {
	nanos := atomic.LoadInt64(&state.lastFailedFlushAt)
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (state *flushState) setLastFailedFlushAt(tm time.Time) {
	atomic.StoreInt64(&state.lastFailedFlushAt, tm.UnixNano())
}

// cooldownRemaining returns how long threshold and timer triggers still have to wait after the last failure
//
// The gate opens when strictly more than wait has passed since the failure
func (state *flushState) cooldownRemaining(now time.Time, wait time.Duration) time.Duration {
	lastFailed := state.LastFailedFlushAt()
	if lastFailed.IsZero() {
		return 0
	}
	elapsed := now.Sub(lastFailed)
	if elapsed > wait {
		return 0
	}
	return wait - elapsed + time.Millisecond
}
