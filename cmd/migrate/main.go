package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	"github.com/angelmondragon/cakeshop-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

// offline commands only touch the migrations directory.
var offline = map[string]func(opts options) error{
	"create": func(opts options) error {
		if opts.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(opts options) error {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

type onlineFunc func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error

func gooseCommand(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
	return migrate.Run(ctx, sqlDB, dialect, opts.dir, opts.cmd)
}

var online = map[string]onlineFunc{
	"up":     gooseCommand,
	"down":   gooseCommand,
	"status": gooseCommand,
	"version": func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if fn, ok := offline[opts.cmd]; ok {
		return fn(opts)
	}
	fn, ok := online[opts.cmd]
	if !ok {
		return fmt.Errorf("unknown -cmd value: %s", opts.cmd)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Console:     cfg.App.ConsoleLogs(),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}

	logg.Info(ctx, "running migration command")
	if err := fn(ctx, sqlDB, migrate.Dialect(cfg.DB), opts); err != nil {
		logg.Error(ctx, "migration command failed", err)
		return err
	}
	return nil
}
