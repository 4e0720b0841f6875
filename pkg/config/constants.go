package config

// EnvPrefix is intentionally empty: every field names its variable in full so the
// envconfig struct tags double as documentation.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared between Load and the test helpers.
const (
	EnvAppEnv   = "PUNTOVENTA_APP_ENV"
	EnvPort     = "PUNTOVENTA_APP_PORT"
	EnvDBDSN    = "PUNTOVENTA_DB_DSN"
	EnvDBHost   = "PUNTOVENTA_DB_HOST"
	EnvDBUser   = "PUNTOVENTA_DB_USER"
	EnvDBName   = "PUNTOVENTA_DB_NAME"
	EnvRedisURL = "PUNTOVENTA_REDIS_URL"
	EnvRatesURL = "PUNTOVENTA_RATES_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
