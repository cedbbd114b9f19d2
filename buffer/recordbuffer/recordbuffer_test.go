package recordbuffer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/relex/log-shipper/base"
	"github.com/stretchr/testify/assert"
)

func rec(message string) base.LogRecord {
	return base.LogRecord{Level: base.LevelInfo, Message: message}
}

func messages(records []base.LogRecord) []string {
	result := make([]string, len(records))
	for i, r := range records {
		result[i] = r.Message
	}
	return result
}

func TestBufferEvictionOrder(t *testing.T) {
	buf := New(3)
	for _, m := range []string{"A", "B", "C"} {
		_, evicted := buf.Append(rec(m))
		assert.False(t, evicted)
	}
	size, evicted := buf.Append(rec("D"))
	assert.Equal(t, 3, size)
	assert.True(t, evicted)
	assert.Equal(t, []string{"B", "C", "D"}, messages(buf.SnapshotPrefix(-1).Records))
	assert.EqualValues(t, 1, buf.Evicted())
}

func TestBufferCapacityInvariant(t *testing.T) {
	buf := New(10)
	for i := 0; i < 1000; i++ {
		size, _ := buf.Append(rec(fmt.Sprint(i)))
		assert.LessOrEqual(t, size, buf.Cap())
	}
	assert.Equal(t, 10, buf.Len())
	assert.EqualValues(t, 990, buf.Evicted())
	assert.Equal(t, "990", buf.SnapshotPrefix(1).Records[0].Message)

	assert.Equal(t, 1, New(0).Cap())
	assert.Equal(t, 1, New(-5).Cap())
}

func TestBufferSnapshotPrefix(t *testing.T) {
	buf := New(4)
	assert.Equal(t, 0, buf.SnapshotPrefix(10).Len())

	for _, m := range []string{"A", "B", "C", "D", "E", "F"} {
		buf.Append(rec(m))
	}
	// ring wrapped: C D E F with head in the middle
	assert.Equal(t, []string{"C", "D"}, messages(buf.SnapshotPrefix(2).Records))
	assert.Equal(t, []string{"C", "D", "E", "F"}, messages(buf.SnapshotPrefix(100).Records))
	assert.Equal(t, 4, buf.Len(), "snapshot must not change the buffer")
}

func TestBufferDiscardPrefix(t *testing.T) {
	buf := New(5)
	for _, m := range []string{"A", "B", "C"} {
		buf.Append(rec(m))
	}
	assert.Equal(t, 0, buf.DiscardPrefix(0))
	assert.Equal(t, 0, buf.DiscardPrefix(-1))
	assert.Equal(t, 2, buf.DiscardPrefix(2))
	assert.Equal(t, []string{"C"}, messages(buf.SnapshotPrefix(-1).Records))
	assert.Equal(t, 1, buf.DiscardPrefix(10))
	assert.Equal(t, 0, buf.Len())

	buf.Append(rec("X"))
	assert.Equal(t, []string{"X"}, messages(buf.SnapshotPrefix(-1).Records))
}

func TestBufferDiscardSnapshot(t *testing.T) {
	buf := New(4)
	for _, m := range []string{"A", "B", "C"} {
		buf.Append(rec(m))
	}
	snapshot := buf.SnapshotPrefix(2) // A B
	buf.Append(rec("D"))
	assert.Equal(t, 2, buf.DiscardSnapshot(snapshot))
	assert.Equal(t, []string{"C", "D"}, messages(buf.SnapshotPrefix(-1).Records))
}

func TestBufferDiscardSnapshotAfterEviction(t *testing.T) {
	buf := New(3)
	for _, m := range []string{"A", "B", "C"} {
		buf.Append(rec(m))
	}
	snapshot := buf.SnapshotPrefix(2) // A B
	buf.Append(rec("D"))              // evicts A
	buf.Append(rec("E"))              // evicts B
	buf.Append(rec("F"))              // evicts C

	assert.Equal(t, 0, buf.DiscardSnapshot(snapshot), "unsent records must survive")
	assert.Equal(t, []string{"D", "E", "F"}, messages(buf.SnapshotPrefix(-1).Records))

	snapshot = buf.SnapshotPrefix(2) // D E
	buf.Append(rec("G"))             // evicts D
	assert.Equal(t, 1, buf.DiscardSnapshot(snapshot))
	assert.Equal(t, []string{"F", "G"}, messages(buf.SnapshotPrefix(-1).Records))
}

func TestBufferConcurrentAppendDiscard(t *testing.T) {
	const producers = 8
	const perProducer = 500
	buf := New(producers * perProducer)

	wg := sync.WaitGroup{}
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				buf.Append(rec(fmt.Sprintf("%d-%d", p, i)))
			}
		}(p)
	}

	// consume concurrently: every discarded prefix must be exactly the snapshot taken before
	consumed := make([]string, 0, producers*perProducer)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	finished := false
	for !finished {
		select {
		case <-done:
			finished = true
		default:
		}
		snapshot := buf.SnapshotPrefix(37)
		assert.Equal(t, snapshot.Len(), buf.DiscardSnapshot(snapshot))
		consumed = append(consumed, messages(snapshot.Records)...)
	}
	rest := buf.SnapshotPrefix(-1)
	buf.DiscardSnapshot(rest)
	consumed = append(consumed, messages(rest.Records)...)

	assert.Len(t, consumed, producers*perProducer)
	assert.EqualValues(t, 0, buf.Evicted())
	// per-producer order is preserved
	lastIndex := make(map[int]int, producers)
	for p := 0; p < producers; p++ {
		lastIndex[p] = -1
	}
	for _, m := range consumed {
		var p, i int
		_, err := fmt.Sscanf(m, "%d-%d", &p, &i)
		assert.Nil(t, err)
		assert.Equal(t, lastIndex[p]+1, i)
		lastIndex[p] = i
	}
}
