package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gofr.dev/instana-exporter/internal/acceptor"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &acceptor.Config{}

	var debug bool

	cmd := &cobra.Command{
		Use:          "acceptor",
		Short:        "Run a local endpoint that accepts Instana span bundles",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&cfg.Port, "port", acceptor.DefaultPort, "port to listen on")
	cmd.Flags().IntVar(&cfg.MaxSpans, "max-spans", acceptor.DefaultMaxSpans, "number of spans kept in memory")
	cmd.Flags().StringVar(&cfg.AgentKey, "agent-key", "", "reject bundles without this X-INSTANA-KEY")
	cmd.Flags().BoolVar(&debug, "debug", false, "log every accepted bundle")

	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func run(ctx context.Context, cfg *acceptor.Config, logger *zap.Logger) error {
	a := acceptor.New(cfg, logger)

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	logger.Info("Shutting down span acceptor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return a.Shutdown(shutdownCtx)
}
