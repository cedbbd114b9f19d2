// Package shipper ties buffering, flushing and stats reporting together behind a non-blocking Append
package shipper

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v2"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/buffer/recordbuffer"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/flush"
	"github.com/relex/log-shipper/stats"
	"github.com/relex/log-shipper/util"
)

// Shipper buffers log records and ships them in batches through a Sender
//
// Append never blocks on network I/O and never fails. Flushes happen in background by threshold and timer, or on
// demand by Flush and Shutdown.
type Shipper struct {
	logger       logger.Logger
	config       Config
	buffer       *recordbuffer.Buffer
	pool         *util.WorkerPool
	executor     *flush.Executor
	controller   *flush.Controller
	ticker       *stats.Ticker
	tickerCancel context.CancelFunc
	filter       *sourceFilter
	closed       int32
	filtered     *xsync.Counter
	rejected     *xsync.Counter
	metrics      shipperMetrics
	markClosed   func() bool
}

type shipperMetrics struct {
	appendedTotal prometheus.Counter
	evictedTotal  prometheus.Counter
	filteredTotal prometheus.Counter
	rejectedTotal prometheus.Counter
}

// Launch creates a Shipper and starts its background tasks
//
// statsSource may be nil, in which case only the shipper's own counters are reported when stats are enabled
func Launch(parentLogger logger.Logger, config Config, sender base.Sender, statsSource base.MetricsSource,
	metricFactory *base.MetricFactory) *Shipper {

	slogger := parentLogger.WithField(defs.LabelComponent, "Shipper")
	config.Validate(slogger)

	buffer := recordbuffer.New(config.MaxBuffer)
	pool := util.NewWorkerPool(slogger, defs.ShipperWorkerPoolSize)
	executor := flush.NewExecutor(slogger, sender, config.SendTimeout, metricFactory)

	s := &Shipper{
		logger:     slogger,
		config:     config,
		buffer:     buffer,
		pool:       pool,
		executor:   executor,
		controller: flush.NewController(slogger, buffer, executor, config.Policy(), pool, metricFactory),
		filter:     newSourceFilter(slogger, config.ExcludeSources),
		closed:     0,
		filtered:   xsync.NewCounter(),
		rejected:   xsync.NewCounter(),
		metrics: shipperMetrics{
			appendedTotal: metricFactory.AddOrGetCounter("shipper_appended_records_total", "Numbers of records appended to buffer", nil, nil),
			evictedTotal:  metricFactory.AddOrGetCounter("shipper_evicted_records_total", "Numbers of records evicted by buffer overflow", nil, nil),
			filteredTotal: metricFactory.AddOrGetCounter("shipper_filtered_records_total", "Numbers of records dropped by source filter", nil, nil),
			rejectedTotal: metricFactory.AddOrGetCounter("shipper_rejected_records_total", "Numbers of records rejected after shutdown", nil, nil),
		},
	}
	s.markClosed = util.NewRunOnce(func() { atomic.StoreInt32(&s.closed, 1) })

	s.controller.Start()

	if config.ShowStats {
		source := stats.NewMultiSource(statsSource, base.MetricsSourceFunc(s.Stats))
		tickerCtx, tickerCancel := context.WithCancel(context.Background())
		s.ticker = stats.NewTicker(slogger, config.StatsInterval, source, sender, defs.StatsSendTimeout)
		s.tickerCancel = tickerCancel
		if !pool.TrySubmit("statsTicker", func() { s.ticker.Run(tickerCtx) }) {
			slogger.Errorf("BUG: failed to launch stats ticker, %d of %d workers busy", pool.Busy(), pool.Size())
		}
	}

	slogger.Infof("launched: threshold=%d maxBuffer=%d timeInterval=%s failedFlushWait=%s showStats=%t",
		config.Threshold, config.MaxBuffer, config.TimeInterval, config.FailedFlushWait, config.ShowStats)
	return s
}

// Append buffers a record for shipping
//
// Records from excluded sources and records appended after shutdown are dropped and counted
func (s *Shipper) Append(record base.LogRecord) {
	if atomic.LoadInt32(&s.closed) != 0 {
		s.rejected.Inc()
		s.metrics.rejectedTotal.Inc()
		return
	}
	if s.filter.Excludes(record.Source) {
		s.filtered.Inc()
		s.metrics.filteredTotal.Inc()
		return
	}
	size, evicted := s.buffer.Append(record)
	s.metrics.appendedTotal.Inc()
	if evicted {
		s.metrics.evictedTotal.Inc()
	}
	s.controller.OnAppended(size)
}

// Flush sends everything buffered now, waiting for any in-progress flush first
//
// Returns true if the buffer was empty or the flush succeeded
func (s *Shipper) Flush(ctx context.Context) bool {
	return s.controller.ForceFlush(ctx)
}

// Shutdown drains the buffer once and stops all background tasks
//
// The final flush is bounded by ctx. Pending sends are aborted afterwards and anything left in buffer is discarded.
// Only the first call does anything.
func (s *Shipper) Shutdown(ctx context.Context) {
	if !s.markClosed() {
		s.logger.Debug("shutdown already done")
		return
	}

	pending := s.buffer.Len()
	s.logger.Infof("shutting down with %d buffered records", pending)
	if !s.controller.ForceFlush(ctx) {
		s.logger.Warnf("final flush failed")
	}

	s.controller.Halt()
	if s.tickerCancel != nil {
		s.tickerCancel()
	}
	s.pool.Close()
	if !s.pool.Wait(defs.ShutdownAbortTimeout) {
		s.logger.Errorf("timeout waiting for %d background tasks", s.pool.Busy())
	}

	if leftover := s.buffer.Len(); leftover > 0 {
		s.logger.Warnf("discarded %d unsent records", leftover)
	}
	s.logger.Info("shut down")
}

// Len returns the count of buffered records
func (s *Shipper) Len() int {
	return s.buffer.Len()
}

// Stats returns the shipper's own counters, as reported along with process and system stats
func (s *Shipper) Stats() map[string]float64 {
	return map[string]float64{
		defs.StatBufferedRecords: float64(s.buffer.Len()),
		defs.StatEvictedRecords:  float64(s.buffer.Evicted()),
		defs.StatFilteredRecords: float64(s.filtered.Value()),
		defs.StatRejectedRecords: float64(s.rejected.Value()),
		defs.StatFailedFlushes:   float64(s.executor.FailedAttempts()),
	}
}
