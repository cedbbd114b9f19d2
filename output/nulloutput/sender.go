// Package nulloutput provides a Sender which discards payloads, for benchmarks and dry runs
package nulloutput

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/output/baseoutput"
)

// ErrSimulatedFailure is returned for simulated failures
var ErrSimulatedFailure = errors.New("simulated failure")

// Config defines artificial behaviors of Sender
type Config struct {
	Delay       time.Duration `yaml:"delay"`       // delay of each send, aborted by context
	FailureRate int           `yaml:"failureRate"` // fail one of every N sends; 0 means never
	Print       bool          `yaml:"print"`       // print each record at debug level
}

// Sender counts and discards payloads
type Sender struct {
	logger   logger.Logger
	config   Config
	calls    int64 // sequence of calls for simulated failures
	records  *xsync.Counter
	batches  *xsync.Counter
	failures *xsync.Counter
	metrics  *xsync.Counter
	client   *baseoutput.ClientMetrics
}

// NewSender creates a Sender
func NewSender(parentLogger logger.Logger, config Config, metricFactory *base.MetricFactory) *Sender {
	return &Sender{
		logger:   parentLogger.WithField(defs.LabelComponent, "NullSender"),
		config:   config,
		calls:    0,
		records:  xsync.NewCounter(),
		batches:  xsync.NewCounter(),
		failures: xsync.NewCounter(),
		metrics:  xsync.NewCounter(),
		client:   baseoutput.NewClientMetrics(metricFactory, "null"),
	}
}

// SendLogs counts a batch unless a failure is simulated
func (sender *Sender) SendLogs(ctx context.Context, batch base.LogBatch) error {
	sender.client.OnForwarding(baseoutput.PayloadLogs)
	if err := sender.simulate(ctx); err != nil {
		sender.client.OnError(err)
		return err
	}
	if sender.config.Print {
		for _, record := range batch.Records {
			sender.logger.Debug(record.String())
		}
	}
	sender.batches.Inc()
	sender.records.Add(int64(batch.Len()))
	sender.client.OnForwarded(baseoutput.PayloadLogs, batch.Len(), 0)
	return nil
}

// SendMetrics counts a snapshot unless a failure is simulated
func (sender *Sender) SendMetrics(ctx context.Context, snapshot base.MetricsSnapshot) error {
	sender.client.OnForwarding(baseoutput.PayloadMetrics)
	if err := sender.simulate(ctx); err != nil {
		sender.client.OnError(err)
		return err
	}
	if sender.config.Print {
		sender.logger.Debugf("stats: %v", snapshot.Metrics)
	}
	sender.metrics.Inc()
	sender.client.OnForwarded(baseoutput.PayloadMetrics, 0, 0)
	return nil
}

func (sender *Sender) simulate(ctx context.Context) error {
	call := atomic.AddInt64(&sender.calls, 1)
	if sender.config.Delay > 0 {
		select {
		case <-time.After(sender.config.Delay):
		case <-ctx.Done():
			sender.failures.Inc()
			return ctx.Err()
		}
	}
	if sender.config.FailureRate > 0 && call%int64(sender.config.FailureRate) == 0 {
		sender.failures.Inc()
		return ErrSimulatedFailure
	}
	return nil
}

// Records returns the count of accepted records
func (sender *Sender) Records() int64 {
	return sender.records.Value()
}

// Batches returns the count of accepted batches
func (sender *Sender) Batches() int64 {
	return sender.batches.Value()
}

// Snapshots returns the count of accepted metrics snapshots
func (sender *Sender) Snapshots() int64 {
	return sender.metrics.Value()
}

// Failures returns the count of simulated failures
func (sender *Sender) Failures() int64 {
	return sender.failures.Value()
}
