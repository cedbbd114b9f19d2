package util

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestSumMetricValues(t *testing.T) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_sum_counter"}, []string{"trigger"})
	counterVec.WithLabelValues("threshold").Add(3)
	counterVec.WithLabelValues("timer").Add(4)
	assert.Equal(t, 7.0, SumMetricValues(counterVec))

	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "test_sum_gauge"}, []string{"name"})
	gaugeVec.WithLabelValues("a").Set(1.5)
	gaugeVec.WithLabelValues("b").Set(-0.5)
	assert.Equal(t, 1.0, SumMetricValues(gaugeVec))
}

func TestMetricsHandler(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_metrics_handler_total"})
	prometheus.MustRegister(counter)
	defer prometheus.Unregister(counter)
	counter.Add(2)

	server := httptest.NewServer(NewMetricsHandler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if !assert.Nil(t, err) {
		return
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_metrics_handler_total 2")

	resp, err = http.Get(server.URL + "/")
	if assert.Nil(t, err) {
		body, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Contains(t, string(body), "/debug/pprof/")
	}

	resp, err = http.Get(server.URL + "/nothing")
	if assert.Nil(t, err) {
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}
