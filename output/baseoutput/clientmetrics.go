// Package baseoutput provides what's shared by Sender implementations
package baseoutput

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/util"
)

// Kinds of payloads, used in metric labels
const (
	PayloadLogs    = "logs"
	PayloadMetrics = "metrics"
)

// ClientMetrics defines metrics shared by output clients
type ClientMetrics struct {
	networkErrorsTotal    prometheus.Counter
	nonNetworkErrorsTotal prometheus.Counter
	inFlightRequests      prometheus.Gauge
	forwardAttemptsTotal  *prometheus.CounterVec
	forwardedTotal        *prometheus.CounterVec
	forwardedBytesTotal   *prometheus.CounterVec
	forwardedRecordsTotal prometheus.Counter
}

// NewClientMetrics creates ClientMetrics labeled by the output type
func NewClientMetrics(metricFactory *base.MetricFactory, outputType string) *ClientMetrics {
	outputMetricFactory := metricFactory.NewSubFactory("output_", []string{"output"}, []string{outputType})

	metrics := &ClientMetrics{
		networkErrorsTotal:    outputMetricFactory.AddOrGetCounter("network_errors_total", "Numbers of network errors", nil, nil),
		nonNetworkErrorsTotal: outputMetricFactory.AddOrGetCounter("nonnetwork_errors_total", "Numbers of non-network errors (auth, unexpected response, etc) from upstream", nil, nil),
		inFlightRequests:      outputMetricFactory.AddOrGetGauge("inflight_requests", "Numbers of requests in progress", nil, nil),
		forwardAttemptsTotal:  outputMetricFactory.AddOrGetCounterVec("forward_attempts_total", "Numbers of payload forwarding attempts", []string{"payload"}, nil),
		forwardedTotal:        outputMetricFactory.AddOrGetCounterVec("forwarded_payloads_total", "Numbers of payloads accepted by upstream", []string{"payload"}, nil),
		forwardedBytesTotal:   outputMetricFactory.AddOrGetCounterVec("forwarded_payload_bytes_total", "Total length in bytes of forwarded payloads as sent", []string{"payload"}, nil),
		forwardedRecordsTotal: outputMetricFactory.AddOrGetCounter("forwarded_records_total", "Numbers of log records accepted by upstream", nil, nil),
	}
	// reset gauges in case metricFactory is reused
	metrics.inFlightRequests.Set(0)

	return metrics
}

// OnError counts a failed forwarding
func (metrics *ClientMetrics) OnError(err error) {
	metrics.inFlightRequests.Dec()
	if err != nil && util.IsNetworkError(err) {
		metrics.networkErrorsTotal.Inc()
	} else {
		metrics.nonNetworkErrorsTotal.Inc()
	}
}

// OnForwarding counts an attempt before it's made
func (metrics *ClientMetrics) OnForwarding(payloadKind string) {
	metrics.forwardAttemptsTotal.WithLabelValues(payloadKind).Inc()
	metrics.inFlightRequests.Inc()
}

// OnForwarded counts a successful forwarding; numRecords is zero for metrics payloads
func (metrics *ClientMetrics) OnForwarded(payloadKind string, numRecords int, numBytes int) {
	metrics.inFlightRequests.Dec()
	metrics.forwardedTotal.WithLabelValues(payloadKind).Inc()
	metrics.forwardedBytesTotal.WithLabelValues(payloadKind).Add(float64(numBytes))
	metrics.forwardedRecordsTotal.Add(float64(numRecords))
}
