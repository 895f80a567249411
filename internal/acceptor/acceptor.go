// Package acceptor implements a local endpoint for the Instana span bundle format. It
// decodes posted bundles, keeps the spans in memory and serves them back by trace id.
package acceptor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gofr.dev/instana-exporter/internal/serializer"
)

const (
	headerAgentKey = "X-INSTANA-KEY"
	maxBodyBytes   = 16 << 20
)

type Acceptor struct {
	logger   *zap.Logger
	config   *Config
	store    *Store
	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

func New(cfg *Config, logger *zap.Logger) *Acceptor {
	a := &Acceptor{
		logger: logger,
		config: cfg,
		store:  NewStore(cfg.MaxSpans),
		mux:    http.NewServeMux(),
	}

	a.mux.HandleFunc("/bundle", a.postBundle)
	a.mux.HandleFunc("/traces", a.getTracesByTraceID)

	return a
}

func (a *Acceptor) Handler() http.Handler {
	return a.mux
}

func (a *Acceptor) Store() *Store {
	return a.store
}

// Start listens on the configured port and serves in the background until Shutdown.
func (a *Acceptor) Start(ctx context.Context) error {
	address := net.JoinHostPort("", a.config.Port)

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	a.listener = ln
	a.server = &http.Server{Handler: a.mux, ReadHeaderTimeout: 10 * time.Second}
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)

		a.logger.Info("Starting span acceptor on HTTP", zap.String("address", ln.Addr().String()))

		if err := a.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Failed to serve HTTP", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the listening address, or "" before Start.
func (a *Acceptor) Addr() string {
	if a.listener == nil {
		return ""
	}

	return a.listener.Addr().String()
}

func (a *Acceptor) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}

	err := a.server.Shutdown(ctx)
	<-a.done

	return err
}

func (a *Acceptor) postBundle(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintf(w, "Method %s not allowed", r.Method)

		return
	}

	if a.config.AgentKey != "" && r.Header.Get(headerAgentKey) != a.config.AgentKey {
		a.logger.Warn("rejected bundle with invalid agent key", zap.String("remote", r.RemoteAddr))
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "invalid agent key")

		return
	}

	spans, err := serializer.DecodeBundle(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.logger.Warn("rejected bundle", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error decoding spans: %v", err)

		return
	}

	a.store.Add(spans...)
	a.logger.Debug("accepted bundle", zap.Int("spans", len(spans)), zap.Int("stored", a.store.Len()))

	w.WriteHeader(http.StatusNoContent)
}

func (a *Acceptor) getTracesByTraceID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, fmt.Sprintf("Method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		return
	}

	traceID := r.URL.Query().Get("traceID")
	if traceID == "" {
		http.Error(w, "traceID parameter is required", http.StatusBadRequest)
		return
	}

	spans := a.store.ByTraceID(traceID)
	if len(spans) == 0 {
		http.Error(w, "trace not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer

	if err := serializer.WriteBundle(r.Context(), &buf, spans); err != nil {
		a.logger.Error("failed to encode spans", zap.String("traceID", traceID), zap.Error(err))
		http.Error(w, fmt.Sprintf("failed to encode spans: %v", err), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(buf.Bytes()); err != nil {
		a.logger.Warn("failed to write response", zap.Error(err))
	}
}
