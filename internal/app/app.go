package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/yungbote/ottolearn-tutor/internal/data/db"
	httpserver "github.com/yungbote/ottolearn-tutor/internal/http"
	"github.com/yungbote/ottolearn-tutor/internal/observability"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *dbpkg.PostgresService
	Repos    Repos
	Services Services
	Server   *httpserver.Server

	otelShutdown func(context.Context) error
}

// New builds the full server: storage, services and the HTTP router. Close releases
// everything New acquired, including on partial failure.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	a, err := NewCore(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	a.Server = httpserver.NewServer(wireRouterConfig(log, cfg, a.Services))
	return a, nil
}

// NewCore wires storage and services without the HTTP surface, for the CLI.
func NewCore(ctx context.Context, log *logger.Logger, cfg Config) (a *App, err error) {
	a = &App{Log: log, Cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
			a = nil
		}
	}()

	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)

	if a.DB, err = OpenDB(log, cfg); err != nil {
		return a, err
	}
	a.Repos = wireRepos(a.DB.DB(), log, cfg)

	if a.Services, err = wireServices(ctx, log, cfg, a.Repos); err != nil {
		return a, err
	}
	return a, nil
}

// OpenDB connects and migrates the configured database.
func OpenDB(log *logger.Logger, cfg Config) (*dbpkg.PostgresService, error) {
	pg, err := dbpkg.NewPostgresService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return pg, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "addr", addr)
		errCh <- a.Server.Run(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.Log.Info("Shutting down HTTP server")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// Close flushes usage events and releases connections. Safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Services.Usage != nil {
		if err := a.Services.Usage.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("usage logger: %w", err))
		}
		if dropped := a.Services.Usage.Dropped(); dropped > 0 {
			a.Log.Warn("Usage events dropped during run", "count", dropped)
		}
	}
	if a.Services.UsageStream != nil {
		if err := a.Services.UsageStream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel: %w", err))
		}
	}
	a.Log.Sync()
	return errors.Join(errs...)
}
