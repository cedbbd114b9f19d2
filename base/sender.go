package base

import (
	"context"
)

// Sender serializes and transports payloads to the remote ingestion endpoint
//
// Implementations must be safe for concurrent use: at most one SendLogs is in flight at a time, but SendMetrics
// may run concurrently with it. Both should honor ctx for cancellation and deadline.
//
// Returned errors are treated as transient failures. Callers never propagate them to log producers.
type Sender interface {
	// SendLogs sends a batch of log records; nil means the batch has been accepted by upstream
	SendLogs(ctx context.Context, batch LogBatch) error

	// SendMetrics sends a metrics snapshot; errors are only logged and never retried
	SendMetrics(ctx context.Context, snapshot MetricsSnapshot) error
}
