package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/wattlesec/authd/pkg/jwtx"
)

type Config struct {
	Issuer        string `env:"AUTH_ISSUER"         envDefault:"authd"` // Issuer claim stamped on access tokens
	SigningSecret string `env:"AUTH_SIGNING_SECRET"`                    // Required: HS256 key material, at least 32 bytes

	AccessTTL    time.Duration `env:"AUTH_ACCESS_TTL"`                        // Optional: access token lifetime (default: 15m)
	RefreshTTL   time.Duration `env:"AUTH_REFRESH_TTL"`                       // Optional: refresh token lifetime (default: 7 days)
	DatabaseFile string        `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"` // Path to SQLite database file

	Env                  string        `env:"ENV"                   envDefault:"dev"`  // Environment (dev, staging, prod)
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"` // Log level (debug, info, warn, error)
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"` // Log format (json, text)
	Port                 int           `env:"PORT"                  envDefault:"8080"` // HTTP server port
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`  // Graceful shutdown timeout
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`   // Expired-token sweep interval
}

// LoadConfig reads configuration from the environment and validates the parts
// the process cannot run without.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if len(cfg.SigningSecret) < jwtx.MinHS256SecretLen {
		return Config{}, fmt.Errorf(
			"AUTH_SIGNING_SECRET must be at least %d bytes, got %d",
			jwtx.MinHS256SecretLen, len(cfg.SigningSecret),
		)
	}

	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	return cfg, nil
}
