package flush

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/log-shipper/base"
)

type executorMetrics struct {
	attemptsTotal    *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	panicsTotal      prometheus.Counter
	sentRecordsTotal *prometheus.CounterVec
}

func newExecutorMetrics(metricFactory *base.MetricFactory) executorMetrics {
	return executorMetrics{
		attemptsTotal:    metricFactory.AddOrGetCounterVec("flush_attempts_total", "Numbers of flush attempts passed to sender", []string{"trigger"}, nil),
		failuresTotal:    metricFactory.AddOrGetCounterVec("flush_failures_total", "Numbers of failed flush attempts", []string{"trigger"}, nil),
		panicsTotal:      metricFactory.AddOrGetCounter("flush_panics_total", "Numbers of panics recovered from sender", nil, nil),
		sentRecordsTotal: metricFactory.AddOrGetCounterVec("flush_sent_records_total", "Numbers of records accepted by sender", []string{"trigger"}, nil),
	}
}

type controllerMetrics struct {
	triggersTotal       *prometheus.CounterVec
	backoffSkipsTotal   *prometheus.CounterVec
	refusedTotal        *prometheus.CounterVec
	discardedTotal      prometheus.Counter
	lostDuringSendTotal prometheus.Counter
	flushing            prometheus.Gauge
}

func newControllerMetrics(metricFactory *base.MetricFactory) controllerMetrics {
	metrics := controllerMetrics{
		triggersTotal:       metricFactory.AddOrGetCounterVec("flush_triggers_total", "Numbers of flushes launched", []string{"trigger"}, nil),
		backoffSkipsTotal:   metricFactory.AddOrGetCounterVec("flush_backoff_skips_total", "Numbers of flushes skipped during the cooldown after a failure", []string{"trigger"}, nil),
		refusedTotal:        metricFactory.AddOrGetCounterVec("flush_refused_total", "Numbers of flushes refused by a full worker pool", []string{"trigger"}, nil),
		discardedTotal:      metricFactory.AddOrGetCounter("flush_discarded_records_total", "Numbers of records removed from buffer after successful flushes", nil, nil),
		lostDuringSendTotal: metricFactory.AddOrGetCounter("flush_evicted_during_send_total", "Numbers of sent records evicted by overflow before the send completed", nil, nil),
		flushing:            metricFactory.AddOrGetGauge("flush_in_progress", "Whether a flush is in progress", nil, nil),
	}
	// reset gauges in case metricFactory is reused, e.g. shipper relaunched with the same labels
	metrics.flushing.Set(0)
	return metrics
}
