package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/api"
	"github.com/nao1215/seoaudit/internal/config"
	applog "github.com/nao1215/seoaudit/internal/log"
	"github.com/nao1215/seoaudit/internal/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may take after a
// shutdown signal.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit board over HTTP",
		Long: `Serve exposes audits through a JSON API so a browser front end can show
the tabbed board while checks finish.

Each client picks a session ID; its first audit creates the session.
Starting an audit in a session supersedes the audit already running there;
its late results are discarded. When the session limit is reached, the least
recently used session without a running audit is dropped.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /v1/sessions/{session}/
  DELETE /v1/sessions/{session}/
  POST /v1/sessions/{session}/audit       {"url": "example.com"}
  POST /v1/sessions/{session}/cancel
  PUT  /v1/sessions/{session}/tab         {"tab": "ux"}
  GET  /v1/sessions/{session}/export.pdf

Examples:
  # Listen on the default address
  seoaudit serve

  # Listen on every interface, port 9000
  seoaudit serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addPipelineFlags(cmd)

	cmd.Flags().String("addr", config.DefaultServeAddress,
		"Address to listen on")
	cmd.Flags().Int("max-sessions", api.DefaultMaxSessions,
		"Maximum number of concurrent sessions")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyPipelineFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	maxSessions, err := cmd.Flags().GetInt("max-sessions")
	if err != nil {
		return err
	}

	logger := applog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", listener.Addr())

	return serve(ctx, listener, newAPIServer(ctx, cfg, logger, maxSessions), logger)
}

// newAPIServer wires the audit pipeline into the HTTP API. Audits run
// under ctx, so they stop when the server shuts down.
func newAPIServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, maxSessions int) *api.Server {
	executor := pipeline.SiteExecutor(pipeline.SiteFactory(cfg, pipeline.WithLogger(logger)))
	return api.NewServer(executor,
		api.WithLogger(logger),
		api.WithBaseContext(ctx),
		api.WithMaxSessions(maxSessions),
	)
}

// serve runs the API on listener until ctx is done, then shuts down
// gracefully.
func serve(ctx context.Context, listener net.Listener, srv *api.Server, logger *slog.Logger) error {
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
