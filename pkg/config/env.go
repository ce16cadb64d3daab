package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so it only
// matters for fields without one.
const EnvPrefix = "CAKESHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	NotifyDriverLog    = "log"
	NotifyDriverSMTP   = "smtp"
	NotifyDriverPubSub = "pubsub"
)

const (
	EnvAppEnv   = "CAKESHOP_APP_ENV"
	EnvPort     = "CAKESHOP_APP_PORT"
	EnvLogLevel = "CAKESHOP_LOG_LEVEL"
	EnvLogFmt   = "CAKESHOP_LOG_FORMAT"

	EnvDBDSN      = "CAKESHOP_DB_DSN"
	EnvDBDriver   = "CAKESHOP_DB_DRIVER"
	EnvDBHost     = "CAKESHOP_DB_HOST"
	EnvDBUser     = "CAKESHOP_DB_USER"
	EnvDBPassword = "CAKESHOP_DB_PASSWORD"
	EnvDBName     = "CAKESHOP_DB_NAME"

	EnvRedisURL = "CAKESHOP_REDIS_URL"

	EnvJWTSecret              = "CAKESHOP_JWT_SECRET"
	EnvJWTIssuer              = "CAKESHOP_JWT_ISSUER"
	EnvJWTExpMins             = "CAKESHOP_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CAKESHOP_REFRESH_TOKEN_TTL_MINUTES"

	EnvCartConflictRetries = "CAKESHOP_CART_CONFLICT_RETRIES"

	EnvNotifyDriver          = "CAKESHOP_NOTIFY_DRIVER"
	EnvSMTPHost              = "CAKESHOP_SMTP_HOST"
	EnvGCPProjectID          = "CAKESHOP_GCP_PROJECT_ID"
	EnvPubSubNewsletterTopic = "CAKESHOP_PUBSUB_NEWSLETTER_TOPIC"

	EnvCORSAllowedOrigins = "CAKESHOP_CORS_ALLOWED_ORIGINS"
)

