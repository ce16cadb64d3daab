package config

import (
	"strings"
	"time"
)

type AppConfig struct {
	Env             string        `envconfig:"CAKESHOP_APP_ENV" required:"true"`
	Port            string        `envconfig:"CAKESHOP_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"CAKESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"CAKESHOP_LOG_WARN_STACK" default:"false"`
	LogFormat       string        `envconfig:"CAKESHOP_LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"CAKESHOP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// ConsoleLogs reports whether logs should be human readable instead of JSON.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAKESHOP_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	// ConflictRetries bounds how often a serialization failure is retried
	// before the client sees TRANSIENT_CONFLICT.
	ConflictRetries int `envconfig:"CAKESHOP_CART_CONFLICT_RETRIES" default:"2"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CAKESHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
