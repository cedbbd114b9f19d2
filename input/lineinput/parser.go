package lineinput

import (
	"bytes"
	"time"

	"github.com/relex/log-shipper/base"
)

// ParseLine converts a text record into a LogRecord
//
// The first word is taken as the level if it's a recognized level name, optionally wrapped in brackets or followed by
// a colon, e.g. "ERROR x", "[warn] x" or "Info: x". Otherwise the whole record is the message at info level.
func ParseLine(line []byte, now time.Time, source string) base.LogRecord {
	record := base.LogRecord{
		Level:     base.LevelInfo,
		Message:   "",
		Timestamp: now,
		Source:    source,
		Details:   "",
		Fields:    nil,
	}
	trimmed := bytes.TrimLeft(line, " \t")
	wordEnd := bytes.IndexAny(trimmed, " \t\n")
	if wordEnd == -1 {
		wordEnd = len(trimmed)
	}
	word := bytes.TrimSuffix(trimmed[:wordEnd], []byte(":"))
	word = bytes.TrimSuffix(bytes.TrimPrefix(word, []byte("[")), []byte("]"))
	if level, ok := base.LookupLogLevel(string(word)); ok && len(word) > 0 {
		record.Level = level
		record.Message = string(bytes.TrimLeft(trimmed[wordEnd:], " \t"))
	} else {
		record.Message = string(line)
	}
	return record
}
