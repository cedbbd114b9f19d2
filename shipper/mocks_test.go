package shipper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/relex/log-shipper/base"
)

type recordingSender struct {
	mutex     sync.Mutex
	messages  []string
	batches   []base.LogBatch
	snapshots []base.MetricsSnapshot
	failing   int32
	blocking  int32
}

func (sender *recordingSender) SendLogs(ctx context.Context, batch base.LogBatch) error {
	if atomic.LoadInt32(&sender.blocking) != 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	if atomic.LoadInt32(&sender.failing) != 0 {
		return errors.New("HTTP 500")
	}
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	sender.batches = append(sender.batches, batch)
	for _, record := range batch.Records {
		sender.messages = append(sender.messages, record.Message)
	}
	return nil
}

func (sender *recordingSender) SendMetrics(ctx context.Context, snapshot base.MetricsSnapshot) error {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	sender.snapshots = append(sender.snapshots, snapshot)
	return nil
}

func (sender *recordingSender) Messages() []string {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	return append([]string(nil), sender.messages...)
}

func (sender *recordingSender) Snapshots() []base.MetricsSnapshot {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	return append([]base.MetricsSnapshot(nil), sender.snapshots...)
}

func (sender *recordingSender) Batches() []base.LogBatch {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	return append([]base.LogBatch(nil), sender.batches...)
}
