package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/fleetmaint/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.Nop

// Config selects the log level and output format.
type Config struct {
	Level  string `json:"level" yaml:"level" koanf:"level"`
	Format string `json:"format" yaml:"format" koanf:"format"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level and format names.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("logging.format: unknown format %q", c.Format)
}

var (
	mu     sync.RWMutex
	format string
)

// Configure applies cfg process wide. Loggers created afterwards use its format.
func Configure(cfg Config) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, _ := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	zerolog.SetGlobalLevel(lvl)
	mu.Lock()
	format = strings.ToLower(cfg.Format)
	mu.Unlock()
	return nil
}

func configuredFormat() string {
	mu.RLock()
	defer mu.RUnlock()
	return format
}

// New returns a Logger for the given component. Without an explicit format,
// APP_ENV=dev selects console output.
func New(component string) Logger {
	return NewZerologLogger(component)
}
