// Package recordbuffer provides a bounded FIFO buffer of log records which overwrites the oldest on overflow
package recordbuffer

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/relex/log-shipper/base"
)

// Buffer is a bounded FIFO ring of log records
//
// Appending to a full buffer evicts the oldest record first, so Len never exceeds Cap. Every record gets a sequence
// number at append time, which lets the flush path discard exactly what it has sent even when producers evicted part
// of it in the meantime.
//
// All methods are safe for concurrent producers plus one flush path.
type Buffer struct {
	mutex   sync.Mutex
	ring    []base.LogRecord
	head    int    // index of the oldest record in ring
	count   int    // number of records in ring
	headSeq uint64 // sequence number of the oldest record, or of the next record if empty
	evicted *xsync.Counter
}

// Snapshot is a copy of the oldest records in a buffer
type Snapshot struct {
	Records  []base.LogRecord
	FirstSeq uint64 // sequence number of Records[0]
}

// Len returns the count of records in the snapshot
func (snapshot Snapshot) Len() int {
	return len(snapshot.Records)
}

// New creates a Buffer of the given capacity. Capacity below 1 is raised to 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		mutex:   sync.Mutex{},
		ring:    make([]base.LogRecord, capacity),
		head:    0,
		count:   0,
		headSeq: 0,
		evicted: xsync.NewCounter(),
	}
}

// Append inserts the record at the tail, evicting the head first if the buffer is full
//
// Returns the occupancy after insertion and whether a record has been evicted
func (buf *Buffer) Append(record base.LogRecord) (int, bool) {
	buf.mutex.Lock()
	defer buf.mutex.Unlock()

	evicted := false
	if buf.count == len(buf.ring) {
		buf.ring[buf.head] = base.LogRecord{}
		buf.head = buf.wrap(buf.head + 1)
		buf.headSeq++
		buf.count--
		evicted = true
	}
	buf.ring[buf.wrap(buf.head+buf.count)] = record
	buf.count++
	size := buf.count

	if evicted {
		buf.evicted.Inc()
	}
	return size, evicted
}

// Len returns the current occupancy
func (buf *Buffer) Len() int {
	buf.mutex.Lock()
	defer buf.mutex.Unlock()
	return buf.count
}

// Cap returns the capacity
func (buf *Buffer) Cap() int {
	return len(buf.ring)
}

// Evicted returns the total count of records dropped by overflow
func (buf *Buffer) Evicted() int64 {
	return buf.evicted.Value()
}

// SnapshotPrefix copies up to maxCount oldest records without changing the buffer
//
// A negative maxCount means everything
func (buf *Buffer) SnapshotPrefix(maxCount int) Snapshot {
	buf.mutex.Lock()
	defer buf.mutex.Unlock()

	num := buf.count
	if maxCount >= 0 && maxCount < num {
		num = maxCount
	}
	records := make([]base.LogRecord, num)
	// copy in at most two runs: from head to the end of ring, then from the start of ring
	firstRun := len(buf.ring) - buf.head
	if firstRun > num {
		firstRun = num
	}
	copy(records, buf.ring[buf.head:buf.head+firstRun])
	copy(records[firstRun:], buf.ring[:num-firstRun])
	return Snapshot{
		Records:  records,
		FirstSeq: buf.headSeq,
	}
}

// DiscardPrefix removes exactly the oldest count records, or all if fewer remain
//
// Returns the count of removed records
func (buf *Buffer) DiscardPrefix(count int) int {
	buf.mutex.Lock()
	defer buf.mutex.Unlock()
	return buf.discardLocked(count)
}

// DiscardSnapshot removes the records of a snapshot which are still in the buffer
//
// Records appended after the snapshot are never removed, even if some of the snapshot's records have been evicted
//
// Returns the count of removed records
func (buf *Buffer) DiscardSnapshot(snapshot Snapshot) int {
	buf.mutex.Lock()
	defer buf.mutex.Unlock()

	endSeq := snapshot.FirstSeq + uint64(len(snapshot.Records))
	if endSeq <= buf.headSeq {
		return 0
	}
	return buf.discardLocked(int(endSeq - buf.headSeq))
}

func (buf *Buffer) discardLocked(count int) int {
	if count <= 0 {
		return 0
	}
	if count > buf.count {
		count = buf.count
	}
	for i := 0; i < count; i++ {
		buf.ring[buf.wrap(buf.head+i)] = base.LogRecord{} // release references for GC
	}
	buf.head = buf.wrap(buf.head + count)
	buf.headSeq += uint64(count)
	buf.count -= count
	return count
}

func (buf *Buffer) wrap(index int) int {
	if index >= len(buf.ring) {
		return index - len(buf.ring)
	}
	return index
}
