// Package instana exports OpenTelemetry spans to the Instana serverless span acceptor.
package instana

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"gofr.dev/pkg/gofr/logging"

	"gofr.dev/instana-exporter/internal/model"
	"gofr.dev/instana-exporter/internal/serializer"
)

const (
	bundlePath = "/bundle"

	HeaderAgentKey = "X-INSTANA-KEY"
	HeaderTime     = "X-INSTANA-TIME"
)

var _ sdktrace.SpanExporter = (*Exporter)(nil)

type Exporter struct {
	url      string
	agentKey string
	client   *http.Client
	logger   logging.Logger
	from     model.From

	stoppedMu sync.RWMutex
	stopped   bool
}

func NewExporter(cfg *Config, logger logging.Logger) (*Exporter, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy url: %w", err)
		}

		transport.Proxy = http.ProxyURL(proxy)
	}

	host, err := os.Hostname()
	if err != nil {
		logger.Warnf("could not resolve hostname, spans are reported without host: %v", err)
	}

	return &Exporter{
		url:      cfg.EndpointURL + bundlePath,
		agentKey: cfg.AgentKey,
		client:   &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger:   logger,
		from:     model.From{EntityID: strconv.Itoa(os.Getpid()), Host: host},
	}, nil
}

// ExportSpans converts spans and sends them as one bundle. Spans that cannot be
// serialized are dropped and reported in the returned error; the rest are still sent.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.stoppedMu.RLock()
	stopped := e.stopped
	e.stoppedMu.RUnlock()

	if stopped {
		return nil
	}

	return e.processSpans(ctx, spans)
}

// Shutdown shuts down the exporter.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.stoppedMu.Lock()
	e.stopped = true
	e.stoppedMu.Unlock()

	e.client.CloseIdleConnections()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return nil
}

func (e *Exporter) processSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	converted, err := e.convertSpans(spans)
	if err != nil {
		e.logger.Errorf("dropping spans that cannot be serialized: %v", err)
	}

	if len(converted) == 0 {
		return err
	}

	if sendErr := e.send(ctx, converted); sendErr != nil {
		e.logger.Error(sendErr)
		return multierr.Append(err, sendErr)
	}

	e.logger.Debugf("exported %d spans to %s", len(converted), e.url)

	return err
}

func (e *Exporter) convertSpans(spans []sdktrace.ReadOnlySpan) ([]*model.Span, error) {
	var errs error

	converted := make([]*model.Span, 0, len(spans))

	for _, s := range spans {
		span := convertSpan(s, e.from)

		if err := serializer.Validate(span); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("span %s: %w", span.SpanID, err))
			continue
		}

		converted = append(converted, span)
	}

	return converted, errs
}

func (e *Exporter) send(ctx context.Context, spans []*model.Span) error {
	pr, pw := io.Pipe()

	go func() {
		pw.CloseWithError(serializer.WriteBundle(ctx, pw, spans))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, pr)
	if err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAgentKey, e.agentKey)
	req.Header.Set(HeaderTime, strconv.FormatInt(time.Now().UnixMilli(), 10))

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send spans: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected response status code: %d", resp.StatusCode)
	}

	return nil
}
