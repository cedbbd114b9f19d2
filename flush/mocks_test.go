package flush

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/buffer/recordbuffer"
	"github.com/relex/log-shipper/util"
)

type fakeSender struct {
	mutex       sync.Mutex
	batches     []base.LogBatch
	attemptedAt []time.Time
	failing     int32
	panicking   int32
	gate        chan struct{} // SendLogs waits for it to be closed, if not nil
	inFlight    int32
	maxInFlight int32
}

func (sender *fakeSender) SendLogs(ctx context.Context, batch base.LogBatch) error {
	current := atomic.AddInt32(&sender.inFlight, 1)
	defer atomic.AddInt32(&sender.inFlight, -1)
	for {
		max := atomic.LoadInt32(&sender.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&sender.maxInFlight, max, current) {
			break
		}
	}

	sender.mutex.Lock()
	sender.attemptedAt = append(sender.attemptedAt, time.Now())
	sender.mutex.Unlock()

	if sender.gate != nil {
		select {
		case <-sender.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if atomic.LoadInt32(&sender.panicking) != 0 {
		panic("sender panic")
	}
	if atomic.LoadInt32(&sender.failing) != 0 {
		return errors.New("upstream unavailable")
	}

	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	sender.batches = append(sender.batches, batch)
	return nil
}

func (sender *fakeSender) SendMetrics(ctx context.Context, snapshot base.MetricsSnapshot) error {
	return nil
}

func (sender *fakeSender) setFailing(failing bool) {
	if failing {
		atomic.StoreInt32(&sender.failing, 1)
	} else {
		atomic.StoreInt32(&sender.failing, 0)
	}
}

func (sender *fakeSender) Batches() []base.LogBatch {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	return append([]base.LogBatch(nil), sender.batches...)
}

func (sender *fakeSender) Attempts() []time.Time {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	return append([]time.Time(nil), sender.attemptedAt...)
}

func (sender *fakeSender) SentMessages() []string {
	result := make([]string, 0, 100)
	for _, batch := range sender.Batches() {
		for _, record := range batch.Records {
			result = append(result, record.Message)
		}
	}
	return result
}

type testController struct {
	*Controller
	pool *util.WorkerPool
}

// newTestController creates a Controller not yet started, with metrics labeled by the test name
func newTestController(t *testing.T, sender base.Sender, maxBuffer int, policy Policy) testController {
	mfactory := base.NewMetricFactory("testflush_", []string{"test"}, []string{t.Name()})
	pool := util.NewWorkerPool(logger.Root(), 5)
	executor := NewExecutor(logger.Root(), sender, time.Second, mfactory)
	controller := NewController(logger.Root(), recordbuffer.New(maxBuffer), executor, policy, pool, mfactory)
	t.Cleanup(func() {
		controller.Halt()
		pool.Close()
		pool.Wait(2 * time.Second)
	})
	return testController{controller, pool}
}

func (tc testController) appendRecords(messages ...string) {
	for _, m := range messages {
		size, _ := tc.buffer.Append(base.LogRecord{Level: base.LevelInfo, Message: m, Timestamp: time.Now()})
		tc.OnAppended(size)
	}
}
