package config

import (
	"fmt"
	"time"
)

type JWTConfig struct {
	Secret                 string `envconfig:"CAKESHOP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CAKESHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CAKESHOP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CAKESHOP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL is zero when unset; the session manager treats that as an error.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(max(j.RefreshTokenTTLMinutes, 0)) * time.Minute
}

func (j JWTConfig) validate() error {
	if j.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	return nil
}

// PasswordConfig holds argon2id costs. Changing them makes existing hashes
// get upgraded on the owner's next login.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAKESHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAKESHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAKESHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAKESHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAKESHOP_ARGON_KEY_LEN" default:"32"`
}

// AuthRateLimitConfig sets fixed windows for the unauthenticated POST routes.
// Each route counts per client IP and per submitted identity separately.
type AuthRateLimitConfig struct {
	LoginWindow            time.Duration `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit     int           `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit           int           `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow         time.Duration `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentityLimit  int           `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_REGISTER_IDENTITY_LIMIT" default:"3"`
	RegisterIPLimit        int           `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	SubscribeWindow        time.Duration `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_SUBSCRIBE_WINDOW" default:"10m"`
	SubscribeIdentityLimit int           `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_SUBSCRIBE_IDENTITY_LIMIT" default:"3"`
	SubscribeIPLimit       int           `envconfig:"CAKESHOP_AUTH_RATE_LIMIT_SUBSCRIBE_IP_LIMIT" default:"30"`
}
