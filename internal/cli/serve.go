package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/tilbot"
	"github.com/aretw0/tilbot/internal/config"
	httpadapter "github.com/aretw0/tilbot/pkg/adapters/http"
	"github.com/aretw0/tilbot/pkg/observability"
	"github.com/aretw0/tilbot/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds the graceful shutdown of the server and its sessions.
var ShutdownTimeout = 5 * time.Second

// Serve listens on cfg.Addr and hosts one session per websocket connection
// until ctx is canceled.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return ServeListener(ctx, ln, cfg, logger)
}

// ServeListener is Serve on an existing listener, which it closes.
func ServeListener(ctx context.Context, ln net.Listener, cfg config.Config, logger *slog.Logger) error {
	provider, err := OpenProvider(cfg, logger)
	if err != nil {
		ln.Close()
		return err
	}
	defer provider.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	engine, err := NewEngine(ctx, cfg, logger, provider, tilbot.WithLifecycleHooks(metrics.Hooks()))
	if err != nil {
		ln.Close()
		return err
	}

	sessions := session.NewRegistry(
		session.WithLogger(logger),
		session.WithLimit(cfg.MaxSessions),
	)
	srv := &http.Server{
		Handler: httpadapter.NewHandler(engine,
			httpadapter.WithLogger(logger),
			httpadapter.WithRegistry(sessions),
			httpadapter.WithMetrics(reg),
			httpadapter.WithVersion(tilbot.Version),
			httpadapter.WithMaxInputSize(cfg.MaxInputSize),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", ln.Addr().String(), "project", cfg.Project)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down", "sessions", sessions.Len())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := sessions.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("sessions: %w", err))
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("graceful shutdown did not complete: %w", err))
			srv.Close()
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
