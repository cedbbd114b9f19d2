package run

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/output/nulloutput"
	"github.com/relex/log-shipper/output/shared"
	"github.com/relex/log-shipper/testdata"
	"github.com/relex/log-shipper/util"
	"github.com/stretchr/testify/assert"
)

const sampleShipperConf = `
shipper:
  threshold: 2
  maxBuffer: 100
  timeInterval: 30s
  failedFlushWait: 500
  showStats: false
  excludeSources: [ignored*]
`

const sampleOutputConf = `
output:
  host: %s
  port: %s
  path: /logs
  authToken: test-token
  hostName: test-host
  format: json
  httpTimeout: 2s
  compressMinSize: 1KB
`

const sampleInputConf = `
input:
  tcpAddress: localhost:0
  multiLine: true
`

func TestLoader(t *testing.T) {
	defs.EnableTestMode()
	payloads := make(chan shared.LogPayload, 10)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.Nil(t, err)
		assert.Equal(t, "/logs", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		payload := shared.LogPayload{}
		assert.Nil(t, shared.DecodePayload(body, r.Header.Get("Content-Encoding") == "gzip", shared.FormatJSON, &payload))
		payloads <- payload
	}))
	defer upstream.Close()
	host, port, _ := net.SplitHostPort(strings.TrimPrefix(upstream.URL, "http://"))

	confPath := writeConfigFile(t, sampleShipperConf+fmt.Sprintf(sampleOutputConf, host, port)+sampleInputConf)
	ld, confErr := NewLoaderFromConfigFile(confPath, "TestLoader_")
	if !assert.Nil(t, confErr) {
		return
	}
	assert.Equal(t, 2, ld.Shipper.Threshold)
	assert.Equal(t, 500*time.Millisecond, ld.Shipper.FailedFlushWait)
	assert.Equal(t, "test-host", ld.Output.HostName)
	assert.Equal(t, 1024, int(ld.Output.CompressMinSize.Bytes()))

	sender, senderErr := ld.NewSender(logger.Root())
	if !assert.Nil(t, senderErr) {
		return
	}
	shpr := ld.LaunchShipper(logger.Root(), sender)
	inputAddr, _, shutdownInputs, inputErr := ld.LaunchInputs(logger.Root(), shpr)
	if !assert.Nil(t, inputErr) {
		return
	}
	assert.NotEqual(t, "localhost:0", inputAddr)

	conn, connErr := net.Dial("tcp", inputAddr)
	if !assert.Nil(t, connErr) {
		return
	}
	_, sendErr := conn.Write([]byte("ERROR boom\n  at main.go:10\nINFO second\nWARN third\n"))
	assert.Nil(t, sendErr)

	// the first two records reach threshold
	select {
	case payload := <-payloads:
		if assert.Equal(t, 2, len(payload.Logs)) {
			assert.Equal(t, "ERROR", payload.Logs[0].Level)
			assert.Equal(t, "boom\n  at main.go:10", payload.Logs[0].Message)
			assert.Equal(t, conn.LocalAddr().String(), payload.Logs[0].Category)
			assert.Equal(t, "test-host", payload.Logs[0].HostName)
			assert.Equal(t, "second", payload.Logs[1].Message)
		}
		assert.Equal(t, "test-token", payload.APIKey)
	case <-time.After(defs.TestReadTimeout):
		assert.Fail(t, "timeout waiting for the first payload")
	}
	assert.Nil(t, conn.Close())

	shutdownInputs()
	ctx, cancel := context.WithTimeout(context.Background(), defs.ShutdownTimeout)
	defer cancel()
	shpr.Shutdown(ctx)

	// the last record is sent by shutdown
	select {
	case payload := <-payloads:
		if assert.Equal(t, 1, len(payload.Logs)) {
			assert.Equal(t, "WARN", payload.Logs[0].Level)
			assert.Equal(t, "third", payload.Logs[0].Message)
		}
	case <-time.After(defs.TestReadTimeout):
		assert.Fail(t, "timeout waiting for the last payload")
	}
	assert.Equal(t, 0, shpr.Len())
}

func TestLoaderNullOutput(t *testing.T) {
	confPath := writeConfigFile(t, `
shipper:
  excludeSources: [ignored]
output:
  host: ""
nullOutput:
  failureRate: 0
`)
	ld, confErr := NewLoaderFromConfigFile(confPath, "TestLoaderNullOutput_")
	if !assert.Nil(t, confErr) {
		return
	}
	assert.False(t, ld.Input.Enabled())
	assert.Equal(t, defs.DefaultFlushThreshold, ld.Shipper.Threshold)
	assert.Equal(t, []string{"ignored"}, ld.Shipper.ExcludeSources)

	sender, senderErr := ld.NewSender(logger.Root())
	assert.Nil(t, senderErr)
	nullSender, ok := sender.(*nulloutput.Sender)
	if !assert.True(t, ok) {
		return
	}

	shpr := ld.LaunchShipper(logger.Root(), sender)
	shpr.Append(base.LogRecord{Level: base.LevelInfo, Message: "hello", Timestamp: time.Now(), Source: "test"})
	shpr.Append(base.LogRecord{Level: base.LevelInfo, Message: "hello", Timestamp: time.Now(), Source: "ignored"})
	shpr.Shutdown(context.Background())
	assert.Equal(t, int64(1), nullSender.Records())
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, os.IsNotExist(err), err)

	_, err = LoadConfigFile(writeConfigFile(t, "unknownSection: 1\n"))
	assert.ErrorContains(t, err, "unknownSection")

	_, err = LoadConfigFile(writeConfigFile(t, "output:\n  port: 0\n"))
	assert.ErrorContains(t, err, "output:")

	_, err = LoadConfigFile(writeConfigFile(t, "shipper: [1, 2]\n"))
	assert.ErrorContains(t, err, "mapping")

	// invalid shipper options are ignored
	cfg, err := LoadConfigFile(writeConfigFile(t, "shipper:\n  threshold: -1\n  maxBuffer: abc\n"))
	if assert.Nil(t, err) {
		assert.Equal(t, defs.DefaultFlushThreshold, cfg.Shipper.Threshold)
		assert.Equal(t, defs.DefaultMaxBuffer, cfg.Shipper.MaxBuffer)
	}
}

func TestSampleConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, util.UnmarshalYamlFile(testdata.GetConfigPath(), &cfg))
	assert.Nil(t, cfg.Verify())
	assert.True(t, cfg.Input.MultiLine)

	cfg.Output.AuthToken = "secret"
	dump, err := util.MarshalYaml(cfg.Redacted())
	assert.Nil(t, err)
	assert.NotContains(t, dump, "secret")
	assert.Contains(t, dump, "threshold: 100")
	assert.Equal(t, "secret", cfg.Output.AuthToken)
}

func writeConfigFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yml")
	assert.Nil(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
