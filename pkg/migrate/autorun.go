package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

type sqlSource interface {
	SQL() (*sql.DB, error)
}

// AutoRunEnabled is true only in dev with CAKESHOP_AUTO_MIGRATE set; other
// environments migrate through cmd/migrate.
func AutoRunEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev applies pending embedded migrations on boot when AutoRunEnabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, src sqlSource) error {
	if !AutoRunEnabled(cfg) {
		return nil
	}
	sqlDB, err := src.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := Dialect(cfg.DB)
	applied, err := UpEmbedded(ctx, sqlDB, dialect)
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"dialect": dialect, "applied": applied})
		if err == nil {
			logg.Info(ctx, "migrations.autorun")
		}
	}
	return err
}
