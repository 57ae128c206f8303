package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "MEDISTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQL    = "sql"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

// Environment variable names, exported for tests and docs.
const (
	EnvAppEnv          = "MEDISTORE_APP_ENV"
	EnvPort            = "MEDISTORE_APP_PORT"
	EnvLogLevel        = "MEDISTORE_LOG_LEVEL"
	EnvLogFormat       = "MEDISTORE_LOG_FORMAT"
	EnvStorageDriver   = "MEDISTORE_STORAGE_DRIVER"
	EnvCartKey         = "MEDISTORE_CART_KEY"
	EnvRedisURL        = "MEDISTORE_REDIS_URL"
	EnvRedisAddr       = "MEDISTORE_REDIS_ADDR"
	EnvDBDriver        = "MEDISTORE_DB_DRIVER"
	EnvDBDSN           = "MEDISTORE_DB_DSN"
	EnvBackendURL      = "MEDISTORE_BACKEND_URL"
	EnvAuthURL         = "MEDISTORE_AUTH_URL"
	EnvQueryDebounce   = "MEDISTORE_QUERY_DEBOUNCE"
	EnvAutoMigrate     = "MEDISTORE_AUTO_MIGRATE"
	EnvBackendTimeout  = "MEDISTORE_BACKEND_TIMEOUT"
	EnvStoragePollTick = "MEDISTORE_STORAGE_POLL_INTERVAL"
	EnvCORSOrigins     = "MEDISTORE_CORS_ORIGINS"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Redis   RedisConfig
	DB      DBConfig
	Backend BackendConfig
	Query   QueryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageSQL:
		if err := c.DB.ensureDSN(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, c.Storage.Driver)
	}

	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvBackendURL, err)
	}
	if c.Query.Debounce <= 0 {
		return fmt.Errorf("%s must be positive", EnvQueryDebounce)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"MEDISTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDISTORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEDISTORE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MEDISTORE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MEDISTORE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"MEDISTORE_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"MEDISTORE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the key-value backend that persists carts.
type StorageConfig struct {
	Driver       string        `envconfig:"MEDISTORE_STORAGE_DRIVER" default:"memory"`
	CartKey      string        `envconfig:"MEDISTORE_CART_KEY" default:"medistore_cart"`
	PollInterval time.Duration `envconfig:"MEDISTORE_STORAGE_POLL_INTERVAL" default:"1s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDISTORE_REDIS_URL"`
	Address      string        `envconfig:"MEDISTORE_REDIS_ADDR"`
	Password     string        `envconfig:"MEDISTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDISTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDISTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDISTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDISTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDISTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDISTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Driver string `envconfig:"MEDISTORE_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"MEDISTORE_DB_DSN"`

	// SQLitePath is used when no DSN is provided for the sqlite driver.
	SQLitePath string `envconfig:"MEDISTORE_DB_SQLITE_PATH" default:"medistore.db"`

	MaxOpenConns    int           `envconfig:"MEDISTORE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MEDISTORE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"MEDISTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDISTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	switch db.Driver {
	case DBDriverSQLite:
		if db.DSN == "" {
			if db.SQLitePath == "" {
				return fmt.Errorf("either %s or MEDISTORE_DB_SQLITE_PATH is required", EnvDBDSN)
			}
			db.DSN = db.SQLitePath
		}
	case DBDriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvDBDSN)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
	return nil
}

// BackendConfig points at the upstream REST API that owns medicines, orders, users and reviews.
type BackendConfig struct {
	BaseURL string        `envconfig:"MEDISTORE_BACKEND_URL" default:"http://localhost:5000"`
	AuthURL string        `envconfig:"MEDISTORE_AUTH_URL"`
	Timeout time.Duration `envconfig:"MEDISTORE_BACKEND_TIMEOUT" default:"10s"`
}

// SessionURL returns the auth endpoint that resolves the caller's session.
func (b BackendConfig) SessionURL() string {
	base := strings.TrimRight(b.AuthURL, "/")
	if base == "" {
		base = strings.TrimRight(b.BaseURL, "/") + "/api/auth"
	}
	return base + "/get-session"
}

type QueryConfig struct {
	Debounce time.Duration `envconfig:"MEDISTORE_QUERY_DEBOUNCE" default:"500ms"`
}
