package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/yourorg/tastebook/pkg/database"
)

const Production = "production"

// Rate limit stores
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// DatabaseOptions select and configure the SQL backend
type DatabaseOptions struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"tastebook"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	Path            string        `env:"DB_PATH" envDefault:"tastebook.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// Database converts the options into the pool configuration
func (d DatabaseOptions) Database() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Name,
		SSLMode:         d.SSLMode,
		Path:            d.Path,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

type AuthOptions struct {
	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"tastebook"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"720h"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	PerMinute int64  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
}

type OpenTelemetryOptions struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"tastebook"`
}

// Config holds the application configuration
type Config struct {
	Environment        string        `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort         int           `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL           string        `env:"REDIS_URL"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	HouseholdCacheTTL  time.Duration `env:"HOUSEHOLD_CACHE_TTL" envDefault:"1m"`
	// ReconcileInterval schedules the aggregate reconcile worker; 0 disables it
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"0"`

	Database      DatabaseOptions
	Auth          AuthOptions
	RateLimit     RateLimitOptions
	OpenTelemetry OpenTelemetryOptions
}

// Load reads .env and .env.local when present, then parses the environment
func Load() (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}
	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option combinations env tags cannot express
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return errors.Errorf("DB_DRIVER must be %q or %q, got %q", database.DriverPostgres, database.DriverSQLite, c.Database.Driver)
	}
	if c.RateLimit.Storage != StorageMemory && c.RateLimit.Storage != StorageRedis {
		return errors.Errorf("RATE_LIMIT_STORAGE must be 'memory' or 'redis', got %q", c.RateLimit.Storage)
	}
	if c.RateLimit.Storage == StorageRedis && c.RedisURL == "" {
		return errors.New("REDIS_URL is required when RATE_LIMIT_STORAGE is 'redis'")
	}
	if c.RateLimit.PerMinute < 1 {
		return errors.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit.PerMinute)
	}
	if c.ReconcileInterval < 0 {
		return errors.Errorf("RECONCILE_INTERVAL must not be negative, got %s", c.ReconcileInterval)
	}
	if c.Environment == Production && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	// godotenv.Load never overrides variables already set; later files cannot override earlier ones
	if err := godotenv.Load(existing...); err != nil {
		return errors.Wrap(err, "load env files")
	}
	return nil
}
