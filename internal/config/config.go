package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"true"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry      time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`
	Port           int           `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv         string        `env:"APP_ENV" envDefault:"production"`

	// Attempts for one add-movement read-modify-write before a version
	// conflict is surfaced to the caller.
	MovementMaxAttempts int `env:"MOVEMENT_MAX_ATTEMPTS" envDefault:"5"`

	// Report an unknown login email as bad credentials instead of not found.
	AuthHideUnknownEmail bool `env:"AUTH_HIDE_UNKNOWN_EMAIL" envDefault:"false"`

	IdempotencyTTL           time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencySweepInterval time.Duration `env:"IDEMPOTENCY_SWEEP_INTERVAL" envDefault:"10m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MovementMaxAttempts < 1 {
		return fmt.Errorf("MOVEMENT_MAX_ATTEMPTS must be at least 1")
	}
	if c.IdempotencyTTL <= 0 || c.IdempotencySweepInterval <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL and IDEMPOTENCY_SWEEP_INTERVAL must be positive")
	}
	return nil
}
