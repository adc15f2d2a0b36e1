package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/csvsearch/internal/census"
	"github.com/JonMunkholm/csvsearch/internal/config"
	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/JonMunkholm/csvsearch/internal/logging"
	"github.com/JonMunkholm/csvsearch/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_root", cfg.Data.Root,
		"load_max_concurrent", cfg.Load.MaxConcurrent,
		"history", historyKind(cfg),
		"census_mock", cfg.Census.Mock,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	var history core.HistoryStore
	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := core.NewPGHistory(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create history table", "error", err)
			os.Exit(1)
		}
		history = pg
	} else {
		history = core.NewMemoryHistory(cfg.Load.HistorySize)
	}

	var datasource census.Datasource
	if cfg.Census.Mock {
		datasource = census.Mock{}
	} else {
		datasource = census.NewACSClient(cfg.Census.BaseURL, cfg.Census.Timeout, cfg.Census.CacheTTL)
	}

	core.LoadTimeout = cfg.Load.Timeout

	service, err := core.NewService(core.ServiceConfig{
		DataRoot:      cfg.Data.Root,
		Encoding:      cfg.Data.Encoding,
		Sanitize:      cfg.Data.Sanitize,
		MaxFileSize:   cfg.Data.MaxFileSize,
		MaxDatasets:   cfg.Data.MaxDatasets,
		MaxConcurrent: cfg.Load.MaxConcurrent,
		MaxWait:       cfg.Load.MaxWaitTime,
	}, history, datasource)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if cfg.Load.HistoryRetention > 0 {
		go service.StartHistoryPruner(jobCtx, core.PruneConfig{
			Retention:     cfg.Load.HistoryRetention,
			CheckInterval: cfg.Load.PruneInterval,
		})
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active loads to complete (with timeout)
		if status := service.LoadStatus(); status.Active > 0 {
			slog.Info("waiting for loads to complete", "active", status.Active)
			if err := service.WaitForLoads(shutdownCtx); err != nil {
				slog.Warn("loads did not complete in time", "error", err)
			} else {
				slog.Info("all loads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

func historyKind(cfg *config.Config) string {
	if cfg.Database.Enabled() {
		return "postgres"
	}
	return "memory"
}
