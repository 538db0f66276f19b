package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/gamestarter/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvConfig lists the environment variables understood by the server.
// Pointer fields stay nil when the variable is unset.
type EnvConfig struct {
	EndpointAddrHTTP   *string        `env:"ADDRESS"`
	DatabaseDSN        *string        `env:"DATABASE_DSN"`
	BcryptCost         *int           `env:"BCRYPT_COST"`
	RequestTimeout     *time.Duration `env:"REQUEST_TIMEOUT"`
	ShutdownTimeout    *time.Duration `env:"SHUTDOWN_TIMEOUT"`
	MaxOpenConns       *int           `env:"MAX_OPEN_CONNS"`
	CORSAllowedOrigins *string        `env:"CORS_ALLOWED_ORIGINS"`
	LogLevel           *string        `env:"LOG_LEVEL"`
}

// parseEnv overlays environment variables onto config. A dotenv file named by
// -env-file/-E is loaded first; otherwise ./.env is tried and silently skipped
// when missing. Variables already present in the process environment win
// over the file. Malformed values panic, as with the JSON layer.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	var e EnvConfig
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, e.DatabaseDSN)
	setIf(&config.BcryptCost, e.BcryptCost)
	setIf(&config.RequestTimeout, e.RequestTimeout)
	setIf(&config.ShutdownTimeout, e.ShutdownTimeout)
	setIf(&config.MaxOpenConns, e.MaxOpenConns)
	setIf(&config.CORSAllowedOrigins, e.CORSAllowedOrigins)
	setIf(&config.LogLevel, e.LogLevel)
}
