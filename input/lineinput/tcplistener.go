package lineinput

import (
	"net"
	"sync"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/util"
)

const tcpReadBufferMax = 8 * 1024 * 1024 // Less than /proc/sys/net/ipv4/tcp_mem
const tcpReadBufferMin = 65536

var tcpLastReadBufferSize = tcpReadBufferMax // shared for all connections, only a cached number

// TCPListener accepts line-based text logs over TCP, with support for multi-line records
//
// Each record is parsed by ParseLine with the remote address as Source and appended. There is no acknowledgement
// and the protocol is inherently unreliable.
type TCPListener struct {
	logger        logger.Logger
	socket        *net.TCPListener
	isRecordStart startTester
	appender      base.RecordAppender
	stopRequest   channels.Awaitable
	taskCounter   *sync.WaitGroup    // connection tasks and the listener task itself
	stopped       channels.Awaitable // signaled when the listener and all connections have stopped
}

// NewTCPListener listens on the given TCP address, which may use port zero to let OS assign one
//
// Returns the listener and the actual address
func NewTCPListener(parentLogger logger.Logger, address string, multiLine bool, appender base.RecordAppender,
	stopRequest channels.Awaitable) (*TCPListener, string, error) {

	socket, err := net.Listen("tcp", address)
	if err != nil {
		return nil, "", err
	}
	boundAddr := socket.Addr().String()

	lgr := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "TCPListener",
		defs.LabelLocal:     boundAddr,
	})
	lgr.Info("start listening")

	// count the listener now, or the WaitGroupAwaitable would be signaled immediately
	taskCounter := &sync.WaitGroup{}
	taskCounter.Add(1)

	return &TCPListener{
		logger:        lgr,
		socket:        socket.(*net.TCPListener),
		isRecordStart: selectStartTester(multiLine),
		appender:      appender,
		stopRequest:   stopRequest,
		taskCounter:   taskCounter,
		stopped:       channels.NewWaitGroupAwaitable(taskCounter),
	}, boundAddr, nil
}

// Start launches the accept loop in background
func (lsnr *TCPListener) Start() {
	go lsnr.run()
}

// Stopped is signaled after the listener and all connections have ended
func (lsnr *TCPListener) Stopped() channels.Awaitable {
	return lsnr.stopped
}

func (lsnr *TCPListener) run() {
	abortListener := channels.NewSignalAwaitable()
	go func() {
		channels.AnyAwaitables(lsnr.stopRequest, abortListener).Next(func() {
			if abortListener.Peek() {
				lsnr.logger.Info("abort listener")
			} else {
				lsnr.logger.Info("close listener on stop request")
			}
		}).WaitForever()
		lsnr.socket.Close()
	}()

	for {
		conn, err := lsnr.socket.AcceptTCP()
		if err != nil {
			if !lsnr.stopRequest.Peek() || !util.IsNetworkClosed(err) {
				lsnr.logger.Error("accept() error: ", err)
				abortListener.Signal()
			}
			break
		}
		connLogger := lsnr.logger.WithFields(logger.Fields{
			defs.LabelPart:   "connection",
			defs.LabelRemote: conn.RemoteAddr().String(),
		})
		connLogger.Info("accepted connection")
		lsnr.taskCounter.Add(1)
		go lsnr.runConnection(connLogger, conn)
	}
	lsnr.logger.Info("end accept loop")

	// there could still be established connections
	lsnr.taskCounter.Done()
}

func (lsnr *TCPListener) runConnection(connLogger logger.Logger, conn *net.TCPConn) {
	defer lsnr.taskCounter.Done()

	source := conn.RemoteAddr().String()
	connAborter := lsnr.launchConnectionCloser(connLogger, conn)
	connReader := lsnr.createConnectionReader(connLogger, conn)
	reader := newRecordReader(connReader.Read, lsnr.isRecordStart, defs.ListenerLineBufferSize,
		defs.InputLogMaxMessageBytes, func(rec []byte) {
			lsnr.appender.Append(ParseLine(rec, time.Now(), source))
		})

	prevDeadline := time.Time{}
	for {
		err := reader.Read()
		if err == nil {
			if prevDeadline.IsZero() {
				prevDeadline = connReader.ReadDeadline()
			} else if connReader.ReadDeadline() != prevDeadline {
				connLogger.Debug("flush input for deadline update")
				reader.Flush()
				prevDeadline = connReader.ReadDeadline()
			}
			continue
		}
		if util.IsNetworkTimeout(err) {
			reader.Flush()
			continue
		}
		reader.FlushAll()
		if util.IsNetworkClosed(err) && lsnr.stopRequest.Peek() {
			connLogger.Info("closed by stop request")
		} else {
			if !util.IsNetworkClosed(err) {
				connLogger.Warn("read() error: ", err)
			}
			connAborter.Signal()
		}
		break
	}
	connLogger.Info("ended")
}

func (lsnr *TCPListener) launchConnectionCloser(connLogger logger.Logger, conn *net.TCPConn) *channels.SignalAwaitable {
	abortConn := channels.NewSignalAwaitable()
	go func() {
		channels.AnyAwaitables(lsnr.stopRequest, abortConn).Next(func() {
			if !abortConn.Peek() {
				connLogger.Info("close connection on stop request")
			}
		}).WaitForever()
		conn.Close()
	}()
	return abortConn
}

func (lsnr *TCPListener) createConnectionReader(connLogger logger.Logger, conn *net.TCPConn) *util.DeadlineReader {
	if err := conn.SetKeepAlive(true); err != nil {
		connLogger.Warnf("error enabling keep-alive: %s", err.Error())
	}
	if sz, err := util.TrySetTCPReadBuffer(conn, tcpLastReadBufferSize, tcpReadBufferMin); err != nil {
		connLogger.Warnf("error changing buffer size: %s", err.Error())
	} else {
		connLogger.Debugf("set TCP buffer size: %d", sz)
		tcpLastReadBufferSize = sz
	}
	return util.WrapDeadlineReader(conn, defs.InputFlushInterval)
}
