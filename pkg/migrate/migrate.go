package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is where the CLI reads and writes migration files, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

var errNoDB = errors.New("db is required")

// FS returns the migrations compiled into the binary, rooted at the migrations directory.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Dialect maps the configured database driver onto goose's dialect name.
func Dialect(cfg config.DBConfig) string {
	if cfg.IsSQLite() {
		return string(goose.DialectSQLite3)
	}
	return string(goose.DialectPostgres)
}

// Run executes a directory based goose command (up, down, status, ...).
// goose prints status output to stdout.
func Run(ctx context.Context, db *sql.DB, dialect, dir, command string, args ...string) error {
	if err := prepare(db, dialect); err != nil {
		return err
	}
	if dir == "" {
		return errors.New("dir is required")
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// UpEmbedded applies every embedded migration that has not run yet and reports how many ran.
func UpEmbedded(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	if db == nil {
		return 0, errNoDB
	}
	provider, err := goose.NewProvider(goose.Dialect(dialect), db, FS())
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		err = fmt.Errorf("goose up: %w", err)
	}
	return len(results), err
}

// MigrateToVersion moves the schema up or down until it sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if err := prepare(db, dialect); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	step, direction := goose.UpToContext, "up-to"
	switch {
	case current == target:
		return nil
	case current > target:
		step, direction = goose.DownToContext, "down-to"
	}
	if err := step(ctx, db, dir, target); err != nil {
		return fmt.Errorf("goose %s %d: %w", direction, target, err)
	}
	return nil
}

func prepare(db *sql.DB, dialect string) error {
	if db == nil {
		return errNoDB
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
