package shared

import (
	"time"

	"github.com/relex/log-shipper/base"
)

// LogPayload is the body of a logs request
type LogPayload struct {
	Logs   []LogEntry `json:"logs" msgpack:"logs"`
	APIKey string     `json:"apiKey,omitempty" msgpack:"apiKey,omitempty"`
}

// LogEntry is one log record in LogPayload
type LogEntry struct {
	Level     string            `json:"level" msgpack:"level"`
	Message   string            `json:"message" msgpack:"message"`
	Timestamp int64             `json:"timestamp" msgpack:"timestamp"` // unix milliseconds
	Category  string            `json:"category,omitempty" msgpack:"category,omitempty"`
	Details   string            `json:"details,omitempty" msgpack:"details,omitempty"`
	Fields    map[string]string `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Agent     string            `json:"agent" msgpack:"agent"`
	HostName  string            `json:"hostName,omitempty" msgpack:"hostName,omitempty"`
}

// StatsPayload is the body of a stats request
type StatsPayload struct {
	Metrics   map[string]float64 `json:"metrics" msgpack:"metrics"`
	Host      string             `json:"host" msgpack:"host"`
	Timestamp int64              `json:"timestamp" msgpack:"timestamp"` // unix milliseconds
}

// PayloadIdentity carries the fields added to every payload
type PayloadIdentity struct {
	APIKey   string
	Agent    string
	HostName string
}

// NewLogPayload builds a LogPayload from a batch
func NewLogPayload(batch base.LogBatch, identity PayloadIdentity) LogPayload {
	entries := make([]LogEntry, len(batch.Records))
	for i, record := range batch.Records {
		entries[i] = LogEntry{
			Level:     record.Level.String(),
			Message:   record.Message,
			Timestamp: toUnixMillis(record.Timestamp),
			Category:  record.Source,
			Details:   record.Details,
			Fields:    record.Fields,
			Agent:     identity.Agent,
			HostName:  identity.HostName,
		}
	}
	return LogPayload{
		Logs:   entries,
		APIKey: identity.APIKey,
	}
}

// NewStatsPayload builds a StatsPayload from a metrics snapshot
func NewStatsPayload(snapshot base.MetricsSnapshot, identity PayloadIdentity) StatsPayload {
	return StatsPayload{
		Metrics:   snapshot.Metrics,
		Host:      identity.HostName,
		Timestamp: toUnixMillis(snapshot.Time),
	}
}

func toUnixMillis(tm time.Time) int64 {
	if tm.IsZero() {
		return time.Now().UnixMilli()
	}
	return tm.UnixMilli()
}
