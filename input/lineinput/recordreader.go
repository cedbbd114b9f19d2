package lineinput

import (
	"bytes"
)

type readFunc func(p []byte) (n int, err error)
type recordConsumer func(s []byte)
type startTester func(line []byte) bool

// recordReader assembles records of one or more lines in a preallocated buffer, e.g.:
//
//	ERROR failed to process order 42
//	    at OrderService.process(OrderService.java:10)
//	    at Worker.run(Worker.java:77)
//	INFO next record
//
// Only the start of a record can be recognized, not the end. A record is completed by the start of the next record,
// by Flush after a pause in input, or by FlushAll at the end of input.
//
// Records passed to consumeRecord don't include the last newline and are only valid during the call.
type recordReader struct {
	readInput       readFunc
	isRecordStart   startTester
	consumeRecord   recordConsumer
	softRecordLimit int    // soft limit of record length, over which a record may be split
	buffer          []byte // preallocated buffer
	offsetSearch    int    // start of the last incomplete line, could be end of buffer
	offsetAppend    int    // end of data in buffer
}

func newRecordReader(read readFunc, isStart startTester, minBufferSize, softRecordLimit int, consume recordConsumer) *recordReader {
	bufferSize := softRecordLimit * 3
	if bufferSize < minBufferSize {
		bufferSize = minBufferSize
	}
	return &recordReader{
		readInput:       read,
		isRecordStart:   isStart,
		consumeRecord:   consume,
		softRecordLimit: softRecordLimit,
		buffer:          make([]byte, bufferSize),
		offsetSearch:    0,
		offsetAppend:    0,
	}
}

// Read reads as much as the buffer allows and consumes all records known to be complete
func (rr *recordReader) Read() error {
	n, err := rr.readInput(rr.buffer[rr.offsetAppend:])
	if n > 0 {
		rr.processBuffer(rr.offsetAppend + n)
	}
	return err
}

// Flush considers the buffered record complete, except for the last line without newline
func (rr *recordReader) Flush() {
	buffer := rr.buffer[:rr.offsetAppend]
	n := bytes.LastIndexByte(buffer, '\n')
	if n == -1 {
		return
	}
	rr.emit(buffer[:n])
	rr.offsetAppend = copy(rr.buffer, buffer[n+1:])
	rr.offsetSearch = 0
}

// FlushAll is like Flush but including the last line without newline, to be called at the end of input
func (rr *recordReader) FlushAll() {
	record := rr.buffer[:rr.offsetAppend]
	if last := rr.offsetSearch; last > 0 && last < len(record) && rr.isRecordStart(record[last:]) {
		rr.emit(record[:last-1])
		record = record[last:]
	}
	if len(record) > 0 && record[len(record)-1] == '\n' {
		record = record[:len(record)-1]
	}
	rr.emit(record)
	rr.offsetAppend = 0
	rr.offsetSearch = 0
}

func (rr *recordReader) processBuffer(bufferEnd int) {
	recordStart := 0
	searchStart := rr.offsetSearch
	buffer := rr.buffer[:bufferEnd]
	for {
		nextEndRel := bytes.IndexByte(buffer[searchStart:], '\n')
		if nextEndRel == -1 {
			break
		}
		nextEnd := nextEndRel + searchStart
		// test the new line if anything precedes it: [prev record L1, '\n', prev record L2, '\n', new line, '\n']
		if searchStart > recordStart && rr.isRecordStart(buffer[searchStart:nextEnd]) {
			rr.emit(buffer[recordStart : searchStart-1])
			recordStart = searchStart
		}
		searchStart = nextEnd + 1
	}
	if recordStart > 0 {
		rr.offsetAppend = copy(rr.buffer, buffer[recordStart:])
		rr.offsetSearch = searchStart - recordStart
	} else {
		rr.offsetAppend = bufferEnd
		rr.offsetSearch = searchStart
	}
	rr.checkOverflow()
}

// checkOverflow consumes everything if there isn't room for another record of max length
func (rr *recordReader) checkOverflow() {
	if len(rr.buffer)-rr.offsetAppend >= rr.softRecordLimit {
		return
	}
	buffer := rr.buffer[:rr.offsetAppend]
	if searchStart := rr.offsetSearch; searchStart > 0 && rr.isRecordStart(buffer[searchStart:]) {
		rr.emit(buffer[:searchStart-1])
		rr.emit(buffer[searchStart:])
	} else {
		rr.emit(buffer)
	}
	rr.offsetAppend = 0
	rr.offsetSearch = 0
}

// emit consumes a record without trailing CR, skipping blank ones
func (rr *recordReader) emit(record []byte) {
	record = bytes.TrimRight(record, "\r")
	if len(bytes.TrimSpace(record)) == 0 {
		return
	}
	rr.consumeRecord(record)
}

// isUnindented tells whether a line starts a new record in multi-line mode, i.e. it's not indented
func isUnindented(line []byte) bool {
	return len(line) > 0 && line[0] != ' ' && line[0] != '\t'
}

// isAnyLine treats every line as a separate record
func isAnyLine(line []byte) bool {
	return true
}
