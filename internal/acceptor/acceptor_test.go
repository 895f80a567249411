package acceptor

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"gofr.dev/instana-exporter/internal/model"
	"gofr.dev/instana-exporter/internal/serializer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestAcceptor(agentKey string) *Acceptor {
	return New(&Config{Port: "0", MaxSpans: 100, AgentKey: agentKey}, zap.NewNop())
}

func bundleBody(t *testing.T, spans ...*model.Span) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	require.NoError(t, serializer.WriteBundle(context.Background(), &buf, spans))

	return &buf
}

func TestPostBundle(t *testing.T) {
	a := newTestAcceptor("")

	root := model.NewSpan("aaaa", "s1", "otel")
	root.LongTraceID = model.Some("ffffaaaa")
	child := model.NewSpan("aaaa", "s2", "otel")
	child.ParentID = model.Some("s1")
	other := model.NewSpan("bbbb", "s3", "otel")

	req := httptest.NewRequest(http.MethodPost, "/bundle", bundleBody(t, root, child, other))
	rec := httptest.NewRecorder()

	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 3, a.Store().Len())

	for _, id := range []string{"aaaa", "ffffaaaa"} {
		req = httptest.NewRequest(http.MethodGet, "/traces?traceID="+id, http.NoBody)
		rec = httptest.NewRecorder()

		a.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, id)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		spans, err := serializer.DecodeBundle(rec.Body)

		require.NoError(t, err)
		require.Len(t, spans, 1+boolToInt(id == "aaaa"), id)
		assert.Equal(t, "s1", spans[0].SpanID)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

func TestPostBundle_Errors(t *testing.T) {
	tests := []struct {
		desc     string
		method   string
		body     string
		agentKey string
		header   string
		code     int
	}{
		{"wrong method", http.MethodGet, "", "", "", http.StatusMethodNotAllowed},
		{"malformed body", http.MethodPost, `{"spans":[{"t":`, "", "", http.StatusBadRequest},
		{"invalid span", http.MethodPost, `{"spans":[{"s":"s1","n":"otel","data":{}}]}`, "", "", http.StatusBadRequest},
		{"missing agent key", http.MethodPost, `{"spans":[]}`, "secret", "", http.StatusUnauthorized},
		{"wrong agent key", http.MethodPost, `{"spans":[]}`, "secret", "guess", http.StatusUnauthorized},
		{"matching agent key", http.MethodPost, `{"spans":[]}`, "secret", "secret", http.StatusNoContent},
	}

	for i, tc := range tests {
		a := newTestAcceptor(tc.agentKey)

		req := httptest.NewRequest(tc.method, "/bundle", strings.NewReader(tc.body))
		if tc.header != "" {
			req.Header.Set(headerAgentKey, tc.header)
		}

		rec := httptest.NewRecorder()

		a.Handler().ServeHTTP(rec, req)

		assert.Equal(t, tc.code, rec.Code, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Zero(t, a.Store().Len(), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestGetTraces_Errors(t *testing.T) {
	a := newTestAcceptor("")

	tests := []struct {
		desc   string
		method string
		target string
		code   int
	}{
		{"wrong method", http.MethodPost, "/traces?traceID=x", http.StatusMethodNotAllowed},
		{"missing trace id", http.MethodGet, "/traces", http.StatusBadRequest},
		{"unknown trace", http.MethodGet, "/traces?traceID=x", http.StatusNotFound},
	}

	for i, tc := range tests {
		rec := httptest.NewRecorder()

		a.Handler().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, http.NoBody))

		assert.Equal(t, tc.code, rec.Code, "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestStartShutdown(t *testing.T) {
	a := newTestAcceptor("")

	assert.Empty(t, a.Addr())
	require.NoError(t, a.Start(context.Background()))
	require.NotEmpty(t, a.Addr())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}

	resp, err := client.Post(fmt.Sprintf("http://%s/bundle", a.Addr()), "application/json",
		bundleBody(t, model.NewSpan("t1", "s1", "otel")))

	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, a.Store().Len())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Shutdown(ctx))
}

func TestShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, newTestAcceptor("").Shutdown(context.Background()))
}
