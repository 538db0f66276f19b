package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gamestarter/internal/flagx"
	"github.com/dmitrijs2005/gamestarter/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "5s" and integer nanoseconds are accepted.
// Absent keys keep the value already present in Config.
type JsonConfig struct {
	EndpointAddrHTTP   *string         `json:"endpoint_addr_http"`
	DatabaseDSN        *string         `json:"database_dsn"`
	BcryptCost         *int            `json:"bcrypt_cost"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	ShutdownTimeout    *timex.Duration `json:"shutdown_timeout"`
	MaxOpenConns       *int            `json:"max_open_conns"`
	CORSAllowedOrigins *string         `json:"cors_allowed_origins"`
	LogLevel           *string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config into config.
// Nothing happens when the flag is absent. An unreadable file or invalid
// JSON panics: the process cannot start with a config it was told to use.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.MaxOpenConns, c.MaxOpenConns)
	setIf(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
	setIf(&config.LogLevel, c.LogLevel)
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
