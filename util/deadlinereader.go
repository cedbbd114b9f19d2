package util

import (
	"io"
	"time"
)

// ReadDeadliner is a reader supporting read deadlines, e.g. net.Conn or pipes opened by *os.File
type ReadDeadliner interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// DeadlineReader wraps a reader with a read timeout updated infrequently in trade of accuracy
//
// The real timeout could be anything from the specified value to double of it. A change of ReadDeadline after a
// successful read tells the caller that at least the specified timeout has passed since the previous change.
type DeadlineReader struct {
	input      ReadDeadliner
	timeoutMin time.Duration
	timeoutMax time.Duration
	deadline   time.Time
}

// WrapDeadlineReader creates a DeadlineReader with the given read timeout, zero for none
func WrapDeadlineReader(input ReadDeadliner, timeout time.Duration) *DeadlineReader {
	return &DeadlineReader{
		input:      input,
		timeoutMin: timeout,
		timeoutMax: timeout * 2,
		deadline:   time.Time{},
	}
}

// ReadDeadline returns the current read deadline
func (dr *DeadlineReader) ReadDeadline() time.Time {
	return dr.deadline
}

func (dr *DeadlineReader) Read(p []byte) (int, error) {
	if dr.timeoutMin > 0 {
		now := time.Now()
		if dr.deadline.Sub(now) < dr.timeoutMin {
			nextDeadline := now.Add(dr.timeoutMax)
			if err := dr.input.SetReadDeadline(nextDeadline); err != nil {
				return 0, err
			}
			dr.deadline = nextDeadline
		}
	}
	return dr.input.Read(p)
}
