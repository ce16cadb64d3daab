package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration. Every field is read from a
// CAKESHOP_* variable; main loads .env first with godotenv.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Notify        NotifyConfig
	SMTP          SMTPConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	CORS          CORSConfig
}

// Load parses the environment and runs the cross-field checks envconfig tags
// cannot express.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	checks := []func(*Config) error{
		func(c *Config) error { return c.DB.resolveDSN() },
		func(c *Config) error { return c.JWT.validate() },
		func(c *Config) error { return c.Notify.validate(c) },
	}
	for _, check := range checks {
		if err := check(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
