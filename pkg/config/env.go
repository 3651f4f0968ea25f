package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PayPalEnvSandbox = "sandbox"
	PayPalEnvLive    = "live"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv             = "VELVET_APP_ENV"
	EnvPort               = "VELVET_APP_PORT"
	EnvPayPalClientID     = "VELVET_PAYPAL_CLIENT_ID"
	EnvPayPalClientSecret = "VELVET_PAYPAL_CLIENT_SECRET"
	EnvPayPalEnv          = "VELVET_PAYPAL_ENV"
	EnvPayPalTimeout      = "VELVET_PAYPAL_TIMEOUT"
	EnvPayPalCurrency     = "VELVET_PAYPAL_CURRENCY"
	EnvCatalogueSources   = "VELVET_CATALOGUE_SOURCES"
	EnvCatalogueDir       = "VELVET_CATALOGUE_DIR"
	EnvLogLevel           = "VELVET_LOG_LEVEL"
	EnvRedisURL           = "VELVET_REDIS_URL"
	EnvDBDriver           = "VELVET_DB_DRIVER"
	EnvDBDSN              = "VELVET_DB_DSN"
)
