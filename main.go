package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talavis/OrderPortal/internal/config"
	"github.com/talavis/OrderPortal/internal/db"
	"github.com/talavis/OrderPortal/internal/gelf"
	"github.com/talavis/OrderPortal/internal/handler"
	"github.com/talavis/OrderPortal/internal/repository"
	"github.com/talavis/OrderPortal/internal/router"
	"github.com/talavis/OrderPortal/internal/server"
	"github.com/talavis/OrderPortal/internal/service"
)

const initTimeout = 2 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("orderportal failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// GELF UDP logging alongside stdout
	var out io.Writer = os.Stdout
	var gelfErr error
	if cfg.Log.GelfAddr != "" {
		gw, err := gelf.New(cfg.Log.GelfAddr, "orderportal")
		if err != nil {
			gelfErr = err
		} else {
			defer gw.Close()
			out = io.MultiWriter(os.Stdout, gw)
		}
	}
	logger := config.SetupLogger(cfg, out)
	if gelfErr != nil {
		logger.Warn("gelf init failed", slog.String("error", gelfErr.Error()))
	} else if cfg.Log.GelfAddr != "" {
		logger.Info("gelf logging enabled", slog.String("addr", cfg.Log.GelfAddr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		forms  service.FormRepository
		logs   service.LogRepository
		users  service.UserRepository
		pinger handler.Pinger
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store := repository.NewMemory()
		forms, logs, users = store.Forms(), store.Logs(), store.Users()
		logger.Warn("using in-memory storage; data is lost on exit")
	default:
		pool, err := db.NewPool(ctx, cfg.OxiDB.Host, cfg.OxiDB.Port, cfg.OxiDB.PoolSize, cfg.OxiDB.Keepalive, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to oxidb",
			slog.String("host", cfg.OxiDB.Host),
			slog.Int("port", cfg.OxiDB.Port),
			slog.Int("pool_size", cfg.OxiDB.PoolSize),
		)
		forms, logs, users = repository.NewFormRepo(pool), repository.NewLogRepo(pool), repository.NewUserRepo(pool)
		pinger = pool
		go ensureIndexes(ctx, cfg, logger)
	}

	if cfg.Cache.Size > 0 {
		forms = service.NewCachedForms(forms, cfg.Cache.Size, cfg.Cache.TTL)
	}

	// Services
	formSvc := service.NewFormService(forms, logs, logger)
	authSvc := service.NewAuthService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)

	if cfg.Storage == config.StorageMemory {
		if err := authSvc.SeedAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return err
		}
	} else {
		go seedAdmin(ctx, authSvc, cfg, logger)
	}

	// Handlers
	r := router.New(logger, cfg.Auth.JWTSecret,
		handler.NewAuthHandler(authSvc, logger),
		handler.NewFormHandler(formSvc, logger),
		handler.NewDashboardHandler(formSvc, logger),
		handler.NewHealthHandler(pinger, logger),
	)

	return server.New(cfg.Addr, r, cfg.ShutdownTimeout, logger).Run(ctx)
}

// ensureIndexes creates the collection indexes on a dedicated connection
// so that index builds do not hold the request pool.
func ensureIndexes(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	logger.Info("background init: starting")
	pool, err := db.NewPool(ctx, cfg.OxiDB.Host, cfg.OxiDB.Port, 1, cfg.OxiDB.Keepalive, logger)
	if err != nil {
		logger.Warn("background init: connect failed", slog.String("error", err.Error()))
		return
	}
	defer pool.Close()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", repository.NewUserRepo(pool).EnsureIndexes},
		{"forms", repository.NewFormRepo(pool).EnsureIndexes},
		{"logs", repository.NewLogRepo(pool).EnsureIndexes},
	}
	for _, s := range steps {
		start := time.Now()
		if err := s.fn(ctx); err != nil {
			logger.Warn("background init: index creation failed",
				slog.String("collection", s.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Info("background init: indexes ready",
			slog.String("collection", s.name),
			slog.Duration("took", time.Since(start)),
		)
	}
}

func seedAdmin(ctx context.Context, authSvc *service.AuthService, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := authSvc.SeedAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Warn("failed to seed admin", slog.String("error", err.Error()))
	}
}
