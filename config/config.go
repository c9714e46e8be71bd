// Package config loads the service configuration from a YAML or JSON file,
// with FM_SECTION__KEY environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetmaint/core/factory"
	"github.com/kilianp07/fleetmaint/core/metrics"
	"github.com/kilianp07/fleetmaint/core/scheduler"
	"github.com/kilianp07/fleetmaint/infra/audit"
	"github.com/kilianp07/fleetmaint/infra/logger"
	"github.com/kilianp07/fleetmaint/infra/monitoring"
	"github.com/kilianp07/fleetmaint/infra/mqtt"
	"github.com/kilianp07/fleetmaint/infra/store"
)

// EnvPrefix marks environment overrides, e.g. FM_HORIZON__WEEK_START.
const EnvPrefix = "FM_"

type Config struct {
	Horizon scheduler.HorizonConfig `json:"horizon"`
	// Data selects the fleet data provider: "file", "synthetic" or "cmms".
	Data    factory.ModuleConfig `json:"data"`
	Store   store.Config         `json:"store"`
	API     APIConfig            `json:"api"`
	Metrics metrics.Config       `json:"metrics"`
	MQTT    mqtt.Config          `json:"mqtt"`
	Audit   audit.Config         `json:"audit"`
	Logging logger.Config        `json:"logging"`
	// Monitoring enables Sentry error reporting when a DSN is set.
	Monitoring monitoring.Config `json:"monitoring"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr                string `json:"addr"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 30
	}
}

// Validate rejects negative timeouts.
func (c APIConfig) Validate() error {
	if c.ReadTimeoutSeconds < 0 || c.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("api: timeouts must not be negative")
	}
	return nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Horizon.SetDefaults()
	if c.Data.Type == "" {
		c.Data.Type = "synthetic"
	}
	c.Store.SetDefaults()
	c.API.SetDefaults()
	c.MQTT.SetDefaults()
	c.Audit.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	return errors.Join(
		c.Horizon.Validate(),
		c.Store.Validate(),
		c.API.Validate(),
		c.Metrics.Validate(),
		c.MQTT.Validate(),
		c.Audit.Validate(),
		c.Monitoring.Validate(),
		c.Logging.Validate(),
	)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads path, applies environment overrides and defaults, and validates
// the result. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	cfg := Config{Horizon: scheduler.DefaultHorizonConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
