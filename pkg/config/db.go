package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DBConfig takes either a full DSN or discrete postgres parts. SQLite
// always needs the DSN (a file path or ":memory:").
type DBConfig struct {
	DSN    string `envconfig:"CAKESHOP_DB_DSN"`
	Driver string `envconfig:"CAKESHOP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CAKESHOP_DB_HOST"`
	Port     int    `envconfig:"CAKESHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"CAKESHOP_DB_USER"`
	Password string `envconfig:"CAKESHOP_DB_PASSWORD"`
	Name     string `envconfig:"CAKESHOP_DB_NAME"`
	SSLMode  string `envconfig:"CAKESHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAKESHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAKESHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAKESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAKESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"CAKESHOP_DB_SLOW_QUERY" default:"200ms"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

func (db *DBConfig) resolveDSN() error {
	switch {
	case db.DSN != "":
		return nil
	case db.IsSQLite():
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	parts := []struct{ env, value string }{
		{EnvDBHost, db.Host},
		{EnvDBUser, db.User},
		{EnvDBName, db.Name},
	}
	var missing []string
	for _, p := range parts {
		if strings.TrimSpace(p.value) == "" {
			missing = append(missing, p.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	db.DSN = db.postgresURL().String()
	return nil
}

func (db DBConfig) postgresURL() *url.URL {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	return u
}

// RedisConfig accepts a redis:// URL or a bare address. Zero pool values fall
// back to go-redis defaults.
type RedisConfig struct {
	URL          string        `envconfig:"CAKESHOP_REDIS_URL"`
	Address      string        `envconfig:"CAKESHOP_REDIS_ADDR"`
	Password     string        `envconfig:"CAKESHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAKESHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAKESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAKESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAKESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAKESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAKESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}
