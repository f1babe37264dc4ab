// Package config holds the command-line client settings: defaults, an
// optional JSON file, the RUNAVAULT_TOKEN environment variable and flags,
// applied in that order.
package config

import (
	"os"
	"time"
)

// TokenEnv names the environment variable holding the bearer token.
const TokenEnv = "RUNAVAULT_TOKEN"

// Config holds runtime settings for the RunaVault CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the VaultService gRPC endpoint.
//   - Token: bearer token sent with every call except Ping.
//   - RequestTimeout: upper bound for a single call.
type Config struct {
	ServerEndpointAddr string
	Token              string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Token = ""
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func parseEnv(cfg *Config) {
	if v := os.Getenv(TokenEnv); v != "" {
		cfg.Token = v
	}
}
