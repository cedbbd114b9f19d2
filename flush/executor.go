package flush

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/util"
)

// Executor performs one flush attempt by handing a batch to the sender
//
// It never touches the buffer. Errors and panics from the sender are translated into a failed attempt.
type Executor struct {
	logger      logger.Logger
	sender      base.Sender
	sendTimeout time.Duration
	metrics     executorMetrics
	failures    *xsync.Counter
}

// NewExecutor creates an Executor; sendTimeout bounds each call to the sender
func NewExecutor(parentLogger logger.Logger, sender base.Sender, sendTimeout time.Duration, metricFactory *base.MetricFactory) *Executor {
	if sendTimeout <= 0 {
		sendTimeout = defs.DefaultSendTimeout
	}
	return &Executor{
		logger:      parentLogger.WithField(defs.LabelPart, "FlushExecutor"),
		sender:      sender,
		sendTimeout: sendTimeout,
		metrics:     newExecutorMetrics(metricFactory),
		failures:    xsync.NewCounter(),
	}
}

// Execute sends the batch and tells whether it has been accepted
func (executor *Executor) Execute(ctx context.Context, batch base.LogBatch) (succeeded bool) {
	sendCtx, cancel := context.WithTimeout(ctx, executor.sendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			executor.logger.Errorf("BUG: sender panicked on %d records (%s): %s", batch.Len(), batch.Trigger, util.FormatPanic(r))
			executor.metrics.panicsTotal.Inc()
			executor.metrics.failuresTotal.WithLabelValues(batch.Trigger).Inc()
			executor.failures.Inc()
			succeeded = false
		}
	}()

	executor.metrics.attemptsTotal.WithLabelValues(batch.Trigger).Inc()
	startTime := time.Now()
	if err := executor.sender.SendLogs(sendCtx, batch); err != nil {
		executor.logger.Warnf("failed to flush %d records (%s) after %s: %s", batch.Len(), batch.Trigger,
			time.Since(startTime).Round(time.Millisecond), describeSendError(sendCtx, err))
		executor.metrics.failuresTotal.WithLabelValues(batch.Trigger).Inc()
		executor.failures.Inc()
		return false
	}
	executor.logger.Debugf("flushed %d records (%s) in %s", batch.Len(), batch.Trigger, time.Since(startTime).Round(time.Millisecond))
	executor.metrics.sentRecordsTotal.WithLabelValues(batch.Trigger).Add(float64(batch.Len()))
	return true
}

func describeSendError(ctx context.Context, err error) string {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Sprintf("%s (%s)", err.Error(), ctxErr.Error())
	}
	return err.Error()
}

// FailedAttempts returns the total count of failed attempts of this executor
func (executor *Executor) FailedAttempts() int64 {
	return executor.failures.Value()
}
