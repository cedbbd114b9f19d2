package lineinput

import (
	"io"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/util"
)

// StreamInput reads records from a stream until EOF or stop request, e.g. from stdin
//
// If the stream supports read deadlines, an incomplete multi-line record is completed after a pause of
// defs.InputFlushInterval. Otherwise it's completed only by the next record or the end of stream.
// On stop request, such a stream is drained of data already sent before being closed.
type StreamInput struct {
	logger        logger.Logger
	name          string
	input         io.ReadCloser
	isRecordStart startTester
	appender      base.RecordAppender
	stopRequest   channels.Awaitable
	stopped       *channels.SignalAwaitable
}

// NewStreamInput creates a StreamInput named as the source of its records
func NewStreamInput(parentLogger logger.Logger, name string, input io.ReadCloser, multiLine bool,
	appender base.RecordAppender, stopRequest channels.Awaitable) *StreamInput {

	return &StreamInput{
		logger:        parentLogger.WithFields(logger.Fields{defs.LabelComponent: "StreamInput", defs.LabelName: name}),
		name:          name,
		input:         input,
		isRecordStart: selectStartTester(multiLine),
		appender:      appender,
		stopRequest:   stopRequest,
		stopped:       channels.NewSignalAwaitable(),
	}
}

// Start launches the reading in background
func (si *StreamInput) Start() {
	go si.run()
}

// Stopped is signaled after the stream has ended and all records are appended
func (si *StreamInput) Stopped() channels.Awaitable {
	return si.stopped
}

func (si *StreamInput) run() {
	defer si.stopped.Signal()

	var deadlineReader *util.DeadlineReader
	rd, canDrain := si.input.(util.ReadDeadliner)
	canDrain = canDrain && rd.SetReadDeadline(time.Time{}) == nil

	ended := channels.NewSignalAwaitable()
	defer ended.Signal()
	interrupted := channels.NewSignalAwaitable()
	go func() {
		channels.AnyAwaitables(si.stopRequest, ended).WaitForever()
		if canDrain && !ended.Peek() {
			// interrupt the pending read and let the loop below drain what's left
			_ = rd.SetReadDeadline(time.Now())
			interrupted.Signal()
			ended.WaitForever()
		}
		si.input.Close()
	}()

	read := si.input.Read
	if canDrain {
		deadlineReader = util.WrapDeadlineReader(rd, defs.InputFlushInterval)
		read = deadlineReader.Read
	}
	reader := newRecordReader(func(p []byte) (int, error) { return read(p) }, si.isRecordStart,
		defs.ListenerLineBufferSize, defs.InputLogMaxMessageBytes,
		func(rec []byte) {
			si.appender.Append(ParseLine(rec, time.Now(), si.name))
		})

	si.logger.Info("started")
	prevDeadline := time.Time{}
	for {
		err := reader.Read()
		if canDrain && si.stopRequest.Peek() && (err == nil || util.IsNetworkTimeout(err)) {
			read = rd.Read
			interrupted.WaitForever()
			err = si.drain(reader, rd)
		}
		if err == nil {
			if deadlineReader != nil && deadlineReader.ReadDeadline() != prevDeadline {
				if !prevDeadline.IsZero() {
					reader.Flush()
				}
				prevDeadline = deadlineReader.ReadDeadline()
			}
			continue
		}
		if util.IsNetworkTimeout(err) && !si.stopRequest.Peek() {
			reader.Flush()
			continue
		}
		reader.FlushAll()
		switch {
		case err == io.EOF:
			si.logger.Info("end of input")
		case si.stopRequest.Peek():
			si.logger.Info("closed by stop request")
		default:
			si.logger.Warn("read() error: ", err)
		}
		break
	}
	si.logger.Info("ended")
}

// drain reads data already available in the input for up to defs.InputDrainTimeout, until timeout or other errors
func (si *StreamInput) drain(reader *recordReader, rd util.ReadDeadliner) error {
	if err := rd.SetReadDeadline(time.Now().Add(defs.InputDrainTimeout)); err != nil {
		return err
	}
	for {
		if err := reader.Read(); err != nil {
			return err
		}
	}
}

func selectStartTester(multiLine bool) startTester {
	if multiLine {
		return isUnindented
	}
	return isAnyLine
}
