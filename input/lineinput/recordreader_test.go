package lineinput

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type chunkedInput struct {
	chunks []string
}

func (ci *chunkedInput) Read(p []byte) (int, error) {
	if len(ci.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, ci.chunks[0])
	if n < len(ci.chunks[0]) {
		ci.chunks[0] = ci.chunks[0][n:]
	} else {
		ci.chunks = ci.chunks[1:]
	}
	return n, nil
}

func readAllRecords(input *chunkedInput, isStart startTester, bufferSize int, recordLimit int) []string {
	var records []string
	reader := newRecordReader(input.Read, isStart, bufferSize, recordLimit, func(rec []byte) {
		records = append(records, string(rec))
	})
	for reader.Read() == nil {
	}
	reader.FlushAll()
	return records
}

func TestRecordReaderMultiLine(t *testing.T) {
	input := &chunkedInput{chunks: []string{
		"ERROR failed\n    at A.b(A.java:1)\n",
		"\tat C.d(C.java:2)\nINFO next\r\n",
		"INFO last",
	}}
	records := readAllRecords(input, isUnindented, 1024, 256)
	assert.Equal(t, []string{
		"ERROR failed\n    at A.b(A.java:1)\n\tat C.d(C.java:2)",
		"INFO next",
		"INFO last",
	}, records)
}

func TestRecordReaderSingleLine(t *testing.T) {
	input := &chunkedInput{chunks: []string{"a\n  b\n", "\n", "c\nd\n"}}
	records := readAllRecords(input, isAnyLine, 1024, 256)
	assert.Equal(t, []string{"a", "  b", "c", "d"}, records)
}

func TestRecordReaderSplitLine(t *testing.T) {
	input := &chunkedInput{chunks: []string{"He", "llo W", "orld\nBye\n"}}
	records := readAllRecords(input, isAnyLine, 1024, 256)
	assert.Equal(t, []string{"Hello World", "Bye"}, records)
}

func TestRecordReaderOverflow(t *testing.T) {
	long := strings.Repeat("x", 50)
	input := &chunkedInput{chunks: []string{long + "\n" + long + "\n" + long + "\n"}}
	records := readAllRecords(input, isAnyLine, 60, 20)
	assert.Equal(t, long+long+long, strings.ReplaceAll(strings.Join(records, ""), "\n", ""))
	for _, rec := range records {
		assert.LessOrEqual(t, len(rec), 60)
	}
}

func TestRecordReaderFlush(t *testing.T) {
	var records []string
	input := &chunkedInput{chunks: []string{"first\n  cont\nsecond\n  partial"}}
	reader := newRecordReader(input.Read, isUnindented, 1024, 256, func(rec []byte) {
		records = append(records, string(rec))
	})
	assert.Nil(t, reader.Read())
	assert.Equal(t, []string{"first\n  cont"}, records)

	reader.Flush()
	assert.Equal(t, []string{"first\n  cont", "second"}, records)

	reader.FlushAll()
	assert.Equal(t, []string{"first\n  cont", "second", "  partial"}, records)
}
