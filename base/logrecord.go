package base

import (
	"fmt"
	"time"
)

// LogRecord is one log event waiting to be shipped
//
// Records are values: once appended to a shipper, neither the record nor its Fields may be modified.
// The buffering and flushing core never inspects the contents; only inputs and senders do.
type LogRecord struct {
	Level     LogLevel          // Severity, invalid values are shipped as info
	Message   string            // Main message
	Timestamp time.Time         // Time of the event
	Source    string            // Identity of the producer, e.g. component, logger or function name
	Details   string            // Optional free-form details, e.g. caller location or parameters
	Fields    map[string]string // Optional structured details
}

func (record LogRecord) String() string {
	return fmt.Sprintf("%s %s [%s] %s", record.Timestamp.Format(time.RFC3339Nano), record.Level, record.Source, record.Message)
}

// RecordAppender accepts log records for shipping
//
// Append must never block on downstream processing or fail; records may be dropped silently under overload
type RecordAppender interface {
	Append(record LogRecord)
}

// RecordAppenderFunc adapts a function to RecordAppender
type RecordAppenderFunc func(record LogRecord)

// Append calls the function itself
func (f RecordAppenderFunc) Append(record LogRecord) {
	f(record)
}
