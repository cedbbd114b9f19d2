package lineinput

import (
	"net"
	"testing"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/stretchr/testify/assert"
)

func TestTCPListener(t *testing.T) {
	const addrParam = "localhost:0"
	rlogger := logger.WithField("test", t.Name())
	stop := channels.NewSignalAwaitable()
	appender, out := newRecordChannel()
	lsnr, addr, err := NewTCPListener(rlogger, addrParam, true, appender, stop)
	if !assert.Nil(t, err) {
		return
	}
	assert.NotEqual(t, addrParam, addr)
	lsnr.Start()

	conn, err := net.Dial("tcp", addr)
	if !assert.Nil(t, err) {
		return
	}
	_, err = conn.Write([]byte("ERROR crashed\n  at main.go:10\nINFO recovered\n"))
	assert.Nil(t, err)
	select {
	case rec := <-out:
		assert.Equal(t, base.LevelError, rec.Level)
		assert.Equal(t, "crashed\n  at main.go:10", rec.Message)
		assert.Equal(t, conn.LocalAddr().String(), rec.Source)
	case <-time.After(defs.TestReadTimeout):
		assert.Fail(t, "timeout")
	}
	// completed by pause in input
	assert.Equal(t, "recovered", readMessage(out))

	_, err = conn.Write([]byte("WARN end")) // no newline end - close should force flushing
	assert.Nil(t, err)
	assert.Nil(t, conn.Close())
	assert.Equal(t, "end", readMessage(out))

	stop.Signal()
	assert.True(t, lsnr.Stopped().Wait(defs.TestReadTimeout))
}

func TestTCPListenerStopWithOpenConnection(t *testing.T) {
	rlogger := logger.WithField("test", t.Name())
	stop := channels.NewSignalAwaitable()
	appender, out := newRecordChannel()
	lsnr, addr, err := NewTCPListener(rlogger, "localhost:0", false, appender, stop)
	if !assert.Nil(t, err) {
		return
	}
	lsnr.Start()
	conn, err := net.Dial("tcp", addr)
	if !assert.Nil(t, err) {
		return
	}
	defer conn.Close()
	_, err = conn.Write([]byte("abc\n  def"))
	assert.Nil(t, err)
	assert.Equal(t, "abc", readMessage(out))
	time.Sleep(100 * time.Millisecond)

	stop.Signal()
	assert.True(t, lsnr.Stopped().Wait(defs.TestReadTimeout))
	assert.Equal(t, "  def", readMessage(out))
}

func TestTCPListenerBadAddress(t *testing.T) {
	_, _, err := NewTCPListener(logger.WithField("test", t.Name()), "localhost:-1", true,
		base.RecordAppenderFunc(func(base.LogRecord) {}), channels.NewSignalAwaitable())
	assert.NotNil(t, err)
}
