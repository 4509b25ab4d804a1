// Package app assembles the server from a config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"librarygql/internal/auth"
	"librarygql/internal/config"
	"librarygql/internal/gateway"
	"librarygql/internal/graph"
	"librarygql/internal/httpx"
	"librarygql/internal/metrics"
	"librarygql/internal/notify"
	"librarygql/internal/store"
	"librarygql/internal/usecase"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   store.Store
	hub     *notify.Hub
	bridge  *notify.NATSBridge
	library *usecase.Library
	metrics *metrics.Metrics
	handler http.Handler
}

// New opens the store and wires every component. Close releases them.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.New()

	st, err := store.Open(ctx, store.Options{
		URI:               cfg.DatabaseURI,
		Database:          cfg.DatabaseName,
		Timeout:           cfg.StoreTimeout,
		MongoTransactions: cfg.MongoTx,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, store: st, metrics: m}
	a.hub = notify.NewHub(notify.Options{
		Buffer:  cfg.NotifyBuffer,
		Policy:  cfg.NotifyPolicy,
		Logger:  logger,
		Metrics: m,
	})

	var notifier usecase.Notifier = a.hub
	if cfg.NATSURL != "" {
		a.bridge, err = notify.NewNATSBridge(cfg.NATSURL, a.hub, logger)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		notifier = a.bridge
	}

	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, st.Users())
	a.library = usecase.NewLibrary(st, authSvc, notifier, usecase.Options{
		DefaultPassword: cfg.DefaultPassword,
		Logger:          logger,
		Metrics:         m,
	})

	schema, err := graph.NewSchema(a.library, graph.Options{MaxDepth: cfg.MaxDepth, Logger: logger})
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	var limiter *httpx.RateLimitMiddleware
	if cfg.RateLimitRPS > 0 {
		limiter = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	a.handler = gateway.New(gateway.Options{
		Schema:  schema,
		Store:   st,
		Auth:    authSvc,
		Metrics: m,
		Logger:  logger,
		Limiter: limiter,
		Origins: cfg.CORSOrigins,
		HSTS:    cfg.EnableHSTS,
		MaxBody: cfg.MaxBodyBytes,
	})
	return a, nil
}

func (a *App) Handler() http.Handler     { return a.handler }
func (a *App) Library() *usecase.Library { return a.library }
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	// Hijacked websocket connections are not tracked by Shutdown; closing
	// the hub completes their streams.
	a.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe serves on cfg.Addr.
func (a *App) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}
	return a.Serve(ctx, ln)
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.bridge != nil {
		if err := a.bridge.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close nats: %w", err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
