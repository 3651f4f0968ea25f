package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	PayPal    PayPalConfig
	Catalogue CatalogueConfig
	Redis     RedisConfig
	DB        DBConfig
	Upload    UploadConfig
	CORS      CORSConfig
}

// Load resolves the configuration once from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.PayPal.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDB resolves only the app and database settings, for tools that never
// talk to the payment provider.
func LoadDB() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg.App); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg.DB); err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELVET_APP_ENV" required:"true"`
	Port         string `envconfig:"VELVET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VELVET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELVET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type PayPalConfig struct {
	ClientID     string        `envconfig:"VELVET_PAYPAL_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"VELVET_PAYPAL_CLIENT_SECRET" required:"true"`
	Env          string        `envconfig:"VELVET_PAYPAL_ENV" default:"sandbox"`
	BaseURL      string        `envconfig:"VELVET_PAYPAL_BASE_URL"`
	Timeout      time.Duration `envconfig:"VELVET_PAYPAL_TIMEOUT" default:"15s"`
	Currency     string        `envconfig:"VELVET_PAYPAL_CURRENCY" default:"USD"`
	BrandName    string        `envconfig:"VELVET_PAYPAL_BRAND_NAME" default:"Velvet Charms"`
	ReturnURL    string        `envconfig:"VELVET_PAYPAL_RETURN_URL" default:"http://localhost:8080/api/return"`
	CancelURL    string        `envconfig:"VELVET_PAYPAL_CANCEL_URL" default:"http://localhost:8080/api/cancel"`
	LandingPage  string        `envconfig:"VELVET_PAYPAL_LANDING_PAGE" default:"LOGIN"`
	UserAction   string        `envconfig:"VELVET_PAYPAL_USER_ACTION" default:"PAY_NOW"`
}

// Environment returns the normalized PayPal environment. Unset means sandbox.
func (p PayPalConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	switch env {
	case "":
		return PayPalEnvSandbox
	case "production":
		return PayPalEnvLive
	}
	return env
}

// IsLive reports whether real funds move.
func (p PayPalConfig) IsLive() bool {
	return p.Environment() == PayPalEnvLive
}

func (p PayPalConfig) validate() error {
	switch p.Environment() {
	case PayPalEnvSandbox, PayPalEnvLive:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvPayPalEnv, PayPalEnvSandbox, PayPalEnvLive, p.Env)
	}
	if strings.TrimSpace(p.ClientID) == "" || strings.TrimSpace(p.ClientSecret) == "" {
		return fmt.Errorf("%s and %s are required", EnvPayPalClientID, EnvPayPalClientSecret)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPayPalTimeout)
	}
	if len(strings.TrimSpace(p.Currency)) != 3 {
		return fmt.Errorf("%s must be a three letter currency code", EnvPayPalCurrency)
	}
	return nil
}

type CatalogueConfig struct {
	Sources []string      `envconfig:"VELVET_CATALOGUE_SOURCES" default:"catalogue-body-glow.json,catalogue-art-gifts.json,catalogue.json"`
	Timeout time.Duration `envconfig:"VELVET_CATALOGUE_TIMEOUT" default:"10s"`
	// Dir resolves relative file sources.
	Dir string `envconfig:"VELVET_CATALOGUE_DIR" default:"."`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELVET_REDIS_URL"`
	Address      string        `envconfig:"VELVET_REDIS_ADDR"`
	Password     string        `envconfig:"VELVET_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELVET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELVET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELVET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELVET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELVET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELVET_REDIS_WRITE_TIMEOUT" default:"5s"`
	SessionTTL   time.Duration `envconfig:"VELVET_REDIS_SESSION_TTL" default:"720h"`
}

// Enabled reports whether session-scoped storage should be wired.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DBConfig struct {
	Driver          string        `envconfig:"VELVET_DB_DRIVER" default:"sqlite"`
	DSN             string        `envconfig:"VELVET_DB_DSN" default:"velvet.db"`
	MaxOpenConns    int           `envconfig:"VELVET_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"VELVET_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"VELVET_DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"VELVET_DB_AUTO_MIGRATE" default:"true"`
}

func (db DBConfig) validate() error {
	switch db.Driver {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DBDriverSQLite, DBDriverPostgres, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

type UploadConfig struct {
	Dir   string `envconfig:"VELVET_UPLOAD_DIR"`
	MaxMB int    `envconfig:"VELVET_UPLOAD_MAX_MB" default:"20"`
}

// MaxBytes returns the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	if u.MaxMB <= 0 {
		return 20 << 20
	}
	return int64(u.MaxMB) << 20
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"VELVET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
