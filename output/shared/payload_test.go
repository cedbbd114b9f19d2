package shared

import (
	"strings"
	"testing"
	"time"

	"github.com/relex/log-shipper/base"
	"github.com/stretchr/testify/assert"
)

var testBatch = base.LogBatch{
	Records: []base.LogRecord{
		{
			Level:     base.LevelWarn,
			Message:   "disk almost full",
			Timestamp: time.Date(2022, 7, 1, 10, 30, 40, 500000000, time.UTC),
			Source:    "storage.Monitor",
			Details:   "Monitor.check monitor.go:52",
			Fields:    map[string]string{"mount": "/data"},
		},
		{
			Level:     base.LogLevel(0),
			Message:   "Hello World",
			Timestamp: time.Date(2022, 7, 1, 10, 30, 41, 0, time.UTC),
		},
	},
	Trigger: "timer",
}

var testIdentity = PayloadIdentity{APIKey: "secret", Agent: "go-logshipper", HostName: "web-1"}

func TestLogPayloadJSON(t *testing.T) {
	encoder, err := NewPayloadEncoder(FormatJSON)
	assert.Nil(t, err)
	assert.Equal(t, "application/json", encoder.ContentType())

	data, err := encoder.Encode(NewLogPayload(testBatch, testIdentity))
	assert.Nil(t, err)
	assert.Equal(t, `{"logs":[`+
		`{"level":"WARN","message":"disk almost full","timestamp":1656671440500,"category":"storage.Monitor","details":"Monitor.check monitor.go:52","fields":{"mount":"/data"},"agent":"go-logshipper","hostName":"web-1"},`+
		`{"level":"INFO","message":"Hello World","timestamp":1656671441000,"agent":"go-logshipper","hostName":"web-1"}`+
		`],"apiKey":"secret"}`, string(data))
}

func TestLogPayloadMsgpackRoundTrip(t *testing.T) {
	encoder, err := NewPayloadEncoder(FormatMsgpack)
	assert.Nil(t, err)
	assert.Equal(t, "application/msgpack", encoder.ContentType())

	data, err := encoder.Encode(NewLogPayload(testBatch, testIdentity))
	assert.Nil(t, err)
	decoded := LogPayload{}
	assert.Nil(t, DecodePayload(data, false, FormatMsgpack, &decoded))
	assert.Equal(t, NewLogPayload(testBatch, testIdentity), decoded)
}

func TestStatsPayload(t *testing.T) {
	snapshot := base.MetricsSnapshot{
		Time:    time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC),
		Metrics: map[string]float64{"memory.free": 1024},
	}
	encoder, _ := NewPayloadEncoder("")
	data, err := encoder.Encode(NewStatsPayload(snapshot, testIdentity))
	assert.Nil(t, err)
	assert.Equal(t, `{"metrics":{"memory.free":1024},"host":"web-1","timestamp":1656633600000}`, string(data))
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewPayloadEncoder("xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestGzipCompressor(t *testing.T) {
	compressor := NewGzipCompressor(100)
	assert.False(t, compressor.ShouldCompress(99))
	assert.True(t, compressor.ShouldCompress(100))
	assert.False(t, NewGzipCompressor(0).ShouldCompress(1000000))

	original := []byte(`{"logs":[` + strings.Repeat(`{"message":"repeated"},`, 50) + `{}]}`)
	for i := 0; i < 3; i++ { // reuse pooled writers
		compressed, err := compressor.Compress(original)
		assert.Nil(t, err)
		assert.Less(t, len(compressed), len(original))

		var decoded map[string]interface{}
		assert.Nil(t, DecodePayload(compressed, true, FormatJSON, &decoded))
		assert.Len(t, decoded["logs"], 51)
	}
}
