package lineinput

import (
	"time"

	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
)

func newRecordChannel() (base.RecordAppender, <-chan base.LogRecord) {
	ch := make(chan base.LogRecord, 100)
	return base.RecordAppenderFunc(func(record base.LogRecord) {
		ch <- record
	}), ch
}

func readMessage(ch <-chan base.LogRecord) string {
	select {
	case rec := <-ch:
		return rec.Message
	case <-time.After(defs.TestReadTimeout):
		return "<timeout>"
	}
}
