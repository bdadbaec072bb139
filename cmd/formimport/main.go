// Command formimport creates forms from a YAML definition file.
//
//	formimport -file forms.yaml [-account admin@example.org] [-dry-run]
//
// Storage settings are read like the server's (OP_* variables and
// OP_CONFIG_FILE). With -dry-run the definitions are checked against an
// in-memory store and nothing is written.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/config"
	"github.com/talavis/OrderPortal/internal/db"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/repository"
	"github.com/talavis/OrderPortal/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "formimport: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "YAML file with form definitions")
	account := flag.String("account", "", "account recorded as owner (default: configured admin email)")
	dryRun := flag.Bool("dry-run", false, "validate definitions without writing")
	flag.Parse()
	if *file == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg, os.Stderr)

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defs, err := parseDefinitions(f)
	f.Close()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		forms service.FormRepository
		logs  service.LogRepository
	)
	if *dryRun || cfg.Storage == config.StorageMemory {
		store := repository.NewMemory()
		forms, logs = store.Forms(), store.Logs()
	} else {
		pool, err := db.NewPool(ctx, cfg.OxiDB.Host, cfg.OxiDB.Port, 1, cfg.OxiDB.Keepalive, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		forms, logs = repository.NewFormRepo(pool), repository.NewLogRepo(pool)
	}

	email := *account
	if email == "" {
		email = cfg.Auth.AdminEmail
	}
	user := &auth.Claims{Email: email, Role: models.RoleAdmin}

	svc := service.NewFormService(forms, logs, logger)
	res := importForms(ctx, svc, user, defs, logger.With(slog.Bool("dry_run", *dryRun)))
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d forms failed", res.Failed, len(defs))
	}
	return nil
}
