package config

const (
	EnvPrefix = "ZAIKA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv     = "ZAIKA_APP_ENV"
	EnvPort       = "ZAIKA_APP_PORT"
	EnvDBDSN      = "ZAIKA_DB_DSN"
	EnvDBHost     = "ZAIKA_DB_HOST"
	EnvDBUser     = "ZAIKA_DB_USER"
	EnvDBName     = "ZAIKA_DB_NAME"
	EnvRedisURL   = "ZAIKA_REDIS_URL"
	EnvJWTSecret  = "ZAIKA_JWT_SECRET"
	EnvJWTIssuer  = "ZAIKA_JWT_ISSUER"
	EnvJWTExpMins = "ZAIKA_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
