package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Rates        RatesConfig
	Carts        CartsConfig
	Sales        SalesConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Carts.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PUNTOVENTA_APP_ENV" required:"true"`
	Port         string `envconfig:"PUNTOVENTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PUNTOVENTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PUNTOVENTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PUNTOVENTA_DB_DSN"`
	Driver string `envconfig:"PUNTOVENTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PUNTOVENTA_DB_HOST"`
	LegacyPort     int    `envconfig:"PUNTOVENTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PUNTOVENTA_DB_USER"`
	LegacyPassword string `envconfig:"PUNTOVENTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PUNTOVENTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PUNTOVENTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PUNTOVENTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PUNTOVENTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PUNTOVENTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PUNTOVENTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PUNTOVENTA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PUNTOVENTA_REDIS_ADDR"`
	Password     string        `envconfig:"PUNTOVENTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PUNTOVENTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PUNTOVENTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PUNTOVENTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PUNTOVENTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PUNTOVENTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PUNTOVENTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RatesConfig drives the exchange-rate polling client. The feed publishes two
// quotes (official and parallel market); Selected picks which one the engine uses.
type RatesConfig struct {
	URL             string        `envconfig:"PUNTOVENTA_RATES_URL" required:"true"`
	RefreshInterval time.Duration `envconfig:"PUNTOVENTA_RATES_REFRESH_INTERVAL" default:"10m"`
	RequestTimeout  time.Duration `envconfig:"PUNTOVENTA_RATES_REQUEST_TIMEOUT" default:"10s"`
	Selected        string        `envconfig:"PUNTOVENTA_RATES_SELECTED" default:"official"`
}

// CartsConfig bounds the concurrent cart set and picks the wizard layout.
type CartsConfig struct {
	RegisterName  string        `envconfig:"PUNTOVENTA_CARTS_REGISTER" default:"caja-1"`
	MaxSessions   int           `envconfig:"PUNTOVENTA_CARTS_MAX_SESSIONS" default:"5"`
	WizardSteps   int           `envconfig:"PUNTOVENTA_CARTS_WIZARD_STEPS" default:"5"`
	SnapshotTTL   time.Duration `envconfig:"PUNTOVENTA_CARTS_SNAPSHOT_TTL" default:"168h"`
	SnapshotDebug bool          `envconfig:"PUNTOVENTA_CARTS_SNAPSHOT_DEBUG" default:"false"`
}

func (c CartsConfig) Validate() error {
	if c.MaxSessions < 1 {
		return fmt.Errorf("%s must be at least 1", "PUNTOVENTA_CARTS_MAX_SESSIONS")
	}
	if c.WizardSteps != 3 && c.WizardSteps != 5 {
		return fmt.Errorf("%s must be 3 or 5", "PUNTOVENTA_CARTS_WIZARD_STEPS")
	}
	return nil
}

// SalesConfig shapes document numbering on emitted sale records.
type SalesConfig struct {
	DocumentPadWidth int    `envconfig:"PUNTOVENTA_SALES_DOC_PAD_WIDTH" default:"4"`
	QuotePrefix      string `envconfig:"PUNTOVENTA_SALES_QUOTE_PREFIX" default:"COT-"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PUNTOVENTA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
