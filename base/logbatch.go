package base

import (
	"time"
)

// LogBatch is an ordered batch of log records handed to a Sender in one call
//
// The records are a private copy taken from the buffer and may be kept by the sender after return
type LogBatch struct {
	Records []LogRecord
	Trigger string // what triggered the flush, for diagnostics only
}

// Len returns the count of records
func (batch LogBatch) Len() int {
	return len(batch.Records)
}

// MetricsSnapshot is a set of numeric metrics sampled at one time, shipped separately from logs
type MetricsSnapshot struct {
	Time    time.Time
	Metrics map[string]float64
}

// MetricsSource provides metrics for periodic stats reporting
//
// GetStats is called from a background goroutine and must be safe for concurrent use with the rest of the program
type MetricsSource interface {
	GetStats() map[string]float64
}

// MetricsSourceFunc adapts a function to MetricsSource
type MetricsSourceFunc func() map[string]float64

// GetStats calls the function itself
func (f MetricsSourceFunc) GetStats() map[string]float64 {
	return f()
}
