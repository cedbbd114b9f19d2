package defs

import (
	"time"
)

// Defaults of the flush policy, used whenever a configured value is missing or invalid
var (
	// DefaultFlushThreshold is the number of buffered records that triggers an immediate flush of that many records
	DefaultFlushThreshold = 100

	// DefaultMaxBuffer is the capacity of the record buffer. The oldest record is evicted when it's exceeded.
	DefaultMaxBuffer = 1000

	// DefaultTimeInterval is the max staleness since the last successful flush before everything buffered is flushed
	DefaultTimeInterval = 10 * time.Second

	// DefaultStatsInterval is how often to send process and system stats
	DefaultStatsInterval = 60 * time.Second

	// DefaultFailedFlushWait is the constant cooldown after a failed flush before threshold or timer may retry
	DefaultFailedFlushWait = 2 * time.Second

	// DefaultSendTimeout bounds one call to the sender for a batch of logs
	//
	// The value also bounds how long shutdown may wait for a stuck flush
	DefaultSendTimeout = 30 * time.Second
)

var (
	// ShipperWorkerPoolSize is the max number of background tasks of one shipper: watchers, stats ticker and flush attempts
	//
	// Flush attempts are refused instead of queued when the pool is full, so the size also acts as a backpressure valve
	ShipperWorkerPoolSize = 5

	// StatsSendTimeout bounds one call to the sender for a stats payload
	StatsSendTimeout = 10 * time.Second

	// ShutdownTimeout is the default time allowed for the final drain and for joining background tasks
	ShutdownTimeout = DefaultSendTimeout + 5*time.Second

	// ShutdownAbortTimeout is how long to wait for tasks after their pending sends have been aborted
	ShutdownAbortTimeout = 5 * time.Second
)

var (
	// InputLogMaxMessageBytes defines the soft limit of one record read from line-based inputs
	//
	// Longer records are split, as the line reader cannot hold them in its buffer
	InputLogMaxMessageBytes = 256 * 1024

	// InputFlushInterval defines how long a line input waits for continuation lines before completing a record
	//
	// Multi-line records (e.g. stack traces) are recognized by indented continuation lines, and only the start of
	// the next record or a pause in input tells that the previous one is complete
	InputFlushInterval = 500 * time.Millisecond

	// InputDrainTimeout is how long a stopping line input keeps reading data already sent to it
	InputDrainTimeout = 200 * time.Millisecond

	// ListenerLineBufferSize defines the initial buffer size in bytes of line-based inputs
	ListenerLineBufferSize = InputLogMaxMessageBytes * 4

	// ListenerStopTimeout is how long to wait for TCP connections to finish after a stop request
	ListenerStopTimeout = 10 * time.Second
)

var (
	// HTTPDefaultTimeout is the default timeout of one HTTP request to the ingestion endpoint
	HTTPDefaultTimeout = 20 * time.Second

	// HTTPMaxErrorBodyBytes is how much of an error response body is kept for logging
	HTTPMaxErrorBodyBytes = 512
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)

// EnableTestMode turns on test mode with very short timeouts
func EnableTestMode() {
	DefaultSendTimeout = 2 * time.Second
	StatsSendTimeout = 1 * time.Second
	ShutdownTimeout = 3 * time.Second
	ShutdownAbortTimeout = 1 * time.Second
	HTTPDefaultTimeout = 2 * time.Second
	InputFlushInterval = 100 * time.Millisecond
	InputDrainTimeout = 50 * time.Millisecond
}
