// Package stats periodically samples process and system metrics and ships them as a separate payload
package stats

import (
	"context"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/util"
)

// Ticker sends a metrics snapshot at start and then every interval
//
// Failures are only logged at debug level. Stats are never buffered or retried.
type Ticker struct {
	logger      logger.Logger
	interval    time.Duration
	source      base.MetricsSource
	sender      base.Sender
	sendTimeout time.Duration
	now         func() time.Time
	stopped     *channels.SignalAwaitable
}

// NewTicker creates a Ticker; Run must be called to start it
func NewTicker(parentLogger logger.Logger, interval time.Duration, source base.MetricsSource, sender base.Sender, sendTimeout time.Duration) *Ticker {
	if interval <= 0 {
		interval = defs.DefaultStatsInterval
	}
	if sendTimeout <= 0 {
		sendTimeout = defs.StatsSendTimeout
	}
	return &Ticker{
		logger:      parentLogger.WithField(defs.LabelPart, "StatsTicker"),
		interval:    interval,
		source:      source,
		sender:      sender,
		sendTimeout: sendTimeout,
		now:         time.Now,
		stopped:     channels.NewSignalAwaitable(),
	}
}

// Run sends stats until ctx is done
func (ticker *Ticker) Run(ctx context.Context) {
	defer ticker.stopped.Signal()
	ticker.logger.Debugf("started, interval=%s", ticker.interval)
	defer ticker.logger.Debug("stopped")

	timeTicker := time.NewTicker(ticker.interval)
	defer timeTicker.Stop()

	for {
		ticker.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-timeTicker.C:
		}
	}
}

// Stopped returns an Awaitable signaled when Run has returned
func (ticker *Ticker) Stopped() channels.Awaitable {
	return ticker.stopped
}

// Tick samples and sends one snapshot. Returns true if it's accepted by sender.
func (ticker *Ticker) Tick(ctx context.Context) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			ticker.logger.Errorf("BUG: panic in stats tick: %s", util.FormatPanic(r))
			sent = false
		}
	}()
	snapshot := base.MetricsSnapshot{
		Time:    ticker.now(),
		Metrics: ticker.source.GetStats(),
	}
	if len(snapshot.Metrics) == 0 {
		ticker.logger.Debug("no stats to send")
		return false
	}
	sendCtx, cancel := context.WithTimeout(ctx, ticker.sendTimeout)
	defer cancel()
	if err := ticker.sender.SendMetrics(sendCtx, snapshot); err != nil {
		ticker.logger.Debugf("failed to send %d stats: %s", len(snapshot.Metrics), err.Error())
		return false
	}
	return true
}
