package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "in-memory"
	StoragePostgres = "postgres"
)

type Config struct {
	StorageType      string        `env:"STORAGE_TYPE,default=in-memory"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	MigrationsDir    string        `env:"MIGRATIONS_DIR,default=internal/db/migrations"`
	RedisAddr        string        `env:"REDIS_ADDR"` // empty keeps rate limits in process
	RateLimitActions int           `env:"RATE_LIMIT_ACTIONS,default=3"`
	RateLimitWindow  time.Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	ContentPolicy    string        `env:"CONTENT_POLICY,default=any"`
	JWTSecret        string        `env:"JWT_SECRET,required=true"`
	TokenTTL         time.Duration `env:"TOKEN_TTL,default=24h"`
	LogLevel         string        `env:"LOG_LEVEL,default=info"`
	Host             string        `env:"HOST,default=0.0.0.0"`
	Port             int           `env:"PORT,default=8080"`
	AllowedOrigins   string        `env:"ALLOWED_ORIGINS,default=*"` // space separated
}

// Load reads the environment, after merging an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORAGE_TYPE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType)
	}
	if c.RateLimitActions < 1 {
		return fmt.Errorf("RATE_LIMIT_ACTIONS must be positive, got %d", c.RateLimitActions)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) Origins() []string {
	return strings.Fields(c.AllowedOrigins)
}
