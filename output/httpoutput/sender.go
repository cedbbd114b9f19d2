// Package httpoutput sends log and stats payloads to an HTTP ingestion endpoint
package httpoutput

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/output/baseoutput"
	"github.com/relex/log-shipper/output/shared"
)

// Sender POSTs payloads to the configured endpoint. It's safe for concurrent use.
//
// A request succeeds if the response status is 2xx
type Sender struct {
	logger     logger.Logger
	client     *http.Client
	logsURL    string
	statsURL   string // empty if stats are not sent
	authToken  string
	userAgent  string
	identity   shared.PayloadIdentity
	encoder    *shared.PayloadEncoder
	compressor *shared.GzipCompressor
	metrics    *baseoutput.ClientMetrics
}

// NewSender creates a Sender from verified config
func NewSender(parentLogger logger.Logger, cfg Config, metricFactory *base.MetricFactory) (*Sender, error) {
	if err := cfg.VerifyConfig(); err != nil {
		return nil, err
	}
	encoder, err := shared.NewPayloadEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}
	token := os.ExpandEnv(cfg.AuthToken)
	hostName := cfg.HostName
	if len(hostName) == 0 {
		if name, herr := os.Hostname(); herr == nil {
			hostName = name
		}
	}
	statsURL := ""
	if len(cfg.StatsPath) > 0 {
		statsURL = cfg.endpointURL(cfg.StatsPath, token)
	}

	sender := &Sender{
		logger:    parentLogger.WithField(defs.LabelComponent, "HTTPSender"),
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		logsURL:   cfg.endpointURL(cfg.Path, token),
		statsURL:  statsURL,
		authToken: token,
		userAgent: cfg.Agent,
		identity: shared.PayloadIdentity{
			APIKey:   token,
			Agent:    cfg.Agent,
			HostName: hostName,
		},
		encoder:    encoder,
		compressor: shared.NewGzipCompressor(int(cfg.CompressMinSize.Bytes())),
		metrics:    baseoutput.NewClientMetrics(metricFactory, "http"),
	}
	sender.logger.Infof("sending to %s as %s, format=%s", cfg.endpointURL(cfg.Path, ""), hostName, encoder.Format())
	return sender, nil
}

// SendLogs posts a log payload
func (sender *Sender) SendLogs(ctx context.Context, batch base.LogBatch) error {
	payload := shared.NewLogPayload(batch, sender.identity)
	return sender.post(ctx, sender.logsURL, baseoutput.PayloadLogs, payload, batch.Len())
}

// SendMetrics posts a stats payload, or does nothing if no stats path is configured
func (sender *Sender) SendMetrics(ctx context.Context, snapshot base.MetricsSnapshot) error {
	if len(sender.statsURL) == 0 {
		return nil
	}
	payload := shared.NewStatsPayload(snapshot, sender.identity)
	return sender.post(ctx, sender.statsURL, baseoutput.PayloadMetrics, payload, 0)
}

func (sender *Sender) post(ctx context.Context, url string, payloadKind string, payload interface{}, numRecords int) error {
	body, err := sender.encoder.Encode(payload)
	if err != nil {
		return err
	}
	gzipped := false
	if sender.compressor.ShouldCompress(len(body)) {
		compressed, cerr := sender.compressor.Compress(body)
		if cerr != nil {
			sender.logger.Warnf("sending uncompressed %s: %s", payloadKind, cerr.Error())
		} else {
			body = compressed
			gzipped = true
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", sender.encoder.ContentType())
	if gzipped {
		request.Header.Set("Content-Encoding", "gzip")
	}
	if len(sender.authToken) > 0 {
		request.Header.Set("Authorization", "Bearer "+sender.authToken)
	}
	if len(sender.userAgent) > 0 {
		request.Header.Set("User-Agent", sender.userAgent)
	}

	sender.metrics.OnForwarding(payloadKind)
	response, err := sender.client.Do(request)
	if err != nil {
		sender.metrics.OnError(err)
		return fmt.Errorf("failed to send %s: %w", payloadKind, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(response.Body, int64(defs.HTTPMaxErrorBodyBytes)))
		err := fmt.Errorf("got status %d for %s with body %q", response.StatusCode, payloadKind, errorBody)
		sender.metrics.OnError(err)
		return err
	}
	_, _ = io.Copy(io.Discard, response.Body) // drain to reuse the connection
	sender.metrics.OnForwarded(payloadKind, numRecords, len(body))
	return nil
}
