// Package daemon holds process configuration: a TOML file with sane
// defaults, plus a handful of environment overrides for container
// deployments.
package daemon

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the full process configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	Store    StoreConfig    `toml:"store"`
	Shop     ShopConfig     `toml:"shop"`
	Workflow WorkflowConfig `toml:"workflow"`
}

// APIConfig configures the HTTP facade.
type APIConfig struct {
	Host           string  `toml:"host"`
	Port           int     `toml:"port"`
	Metrics        bool    `toml:"metrics"`
	RateLimit      bool    `toml:"rate_limit"`
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`
}

// Addr returns host:port for net/http.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// StoreConfig configures the row store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// ShopConfig configures the shop side.
type ShopConfig struct {
	// Seed inserts the default catalog when the products table is empty.
	Seed bool `toml:"seed"`
}

// WorkflowConfig configures the document workflow.
type WorkflowConfig struct {
	// Strict enforces the document transition table instead of the
	// permissive unconditional setters.
	Strict bool `toml:"strict"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Metrics:        true,
			RateLimit:      false,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Store:    StoreConfig{Path: "storefront.db"},
		Shop:     ShopConfig{Seed: true},
		Workflow: WorkflowConfig{Strict: false},
	}
}

// Load reads the TOML config at path over the defaults, then applies
// environment overrides. A missing file is not an error — defaults plus
// environment carry a fresh install.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv maps the container-deployment environment onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.API.Port = port
		}
	}
	if v := os.Getenv("STOREFRONT_HOST"); v != "" {
		c.API.Host = v
	}
	if v := os.Getenv("STOREFRONT_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("STOREFRONT_STRICT_WORKFLOW"); v != "" {
		c.Workflow.Strict = v == "1" || v == "true"
	}
}
