package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/model"
)

// HorizonConfig defines the planning horizon and the scheduling defaults.
type HorizonConfig struct {
	// WeekStart is the first horizon day, formatted YYYY-MM-DD.
	WeekStart string `json:"week_start" yaml:"week_start"`
	Days      int    `json:"days" yaml:"days"`
	// AnchorYear is the year every mutation timestamp is snapped to. Zero disables snapping.
	AnchorYear int `json:"anchor_year" yaml:"anchor_year"`
	// Timezone is an IANA name; empty means the host local zone.
	Timezone      string `json:"timezone" yaml:"timezone"`
	BusinessOpen  int    `json:"business_open" yaml:"business_open"`
	BusinessClose int    `json:"business_close" yaml:"business_close"`
	// NightHour anchors ops tasks moved by the ops shift step.
	NightHour int `json:"night_hour" yaml:"night_hour"`
	// MorningHour ends the night window that starts at NightHour.
	MorningHour int `json:"morning_hour" yaml:"morning_hour"`
	FallbackDay int `json:"fallback_day" yaml:"fallback_day"`
	// FallbackHour is the hour of the default slot; nil means 9.
	FallbackHour     *int    `json:"fallback_hour" yaml:"fallback_hour"`
	DefaultTaskHours float64 `json:"default_task_hours" yaml:"default_task_hours"`
	MaxReportedIDs   int     `json:"max_reported_ids" yaml:"max_reported_ids"`
	Workers          int     `json:"workers" yaml:"workers"`
}

// SetDefaults fills unset fields.
func (c *HorizonConfig) SetDefaults() {
	if c.WeekStart == "" {
		c.WeekStart = "2025-08-18"
	}
	if c.Days == 0 {
		c.Days = 7
	}
	if c.AnchorYear == 0 {
		c.AnchorYear = 2025
	}
	if c.BusinessOpen == 0 && c.BusinessClose == 0 {
		c.BusinessOpen, c.BusinessClose = 8, 17
	}
	// A zero pair is unset; a single zero is midnight.
	if c.NightHour == 0 && c.MorningHour == 0 {
		c.NightHour, c.MorningHour = 22, 6
	}
	if c.FallbackHour == nil {
		h := 9
		c.FallbackHour = &h
	}
	if c.DefaultTaskHours == 0 {
		c.DefaultTaskHours = 2
	}
	if c.MaxReportedIDs == 0 {
		c.MaxReportedIDs = 50
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// Validate checks the horizon is usable.
func (c HorizonConfig) Validate() error {
	if _, err := time.Parse("2006-01-02", c.WeekStart); err != nil {
		return fmt.Errorf("week_start: %w", err)
	}
	if c.Days <= 0 || c.Days > 31 {
		return fmt.Errorf("days must be in 1..31, got %d", c.Days)
	}
	if !c.BusinessHours().Valid() {
		return fmt.Errorf("invalid business hours [%d,%d]", c.BusinessOpen, c.BusinessClose)
	}
	if c.NightHour < 0 || c.NightHour > 23 || c.MorningHour < 0 || c.MorningHour > 23 {
		return fmt.Errorf("night_hour and morning_hour must be in 0..23")
	}
	if c.FallbackDay < 0 || c.FallbackDay >= c.Days {
		return fmt.Errorf("fallback_day %d outside horizon", c.FallbackDay)
	}
	if h := c.FallbackAt(); h < 0 || h > 23 {
		return fmt.Errorf("fallback_hour must be in 0..23")
	}
	if c.DefaultTaskHours <= 0 {
		return fmt.Errorf("default_task_hours must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if _, err := c.location(); err != nil {
		return err
	}
	return nil
}

// DefaultHorizonConfig returns a config with every default set. Decoders
// start from it so explicit zero hours in a file survive.
func DefaultHorizonConfig() HorizonConfig {
	var c HorizonConfig
	c.SetDefaults()
	return c
}

// FallbackAt returns the hour of the default slot.
func (c HorizonConfig) FallbackAt() int {
	if c.FallbackHour == nil {
		return 9
	}
	return *c.FallbackHour
}

// BusinessHours returns the default business window.
func (c HorizonConfig) BusinessHours() model.BusinessHours {
	return model.BusinessHours{Open: c.BusinessOpen, Close: c.BusinessClose}
}

// Calendar builds the interval.Calendar described by the config.
func (c HorizonConfig) Calendar() (interval.Calendar, error) {
	loc, err := c.location()
	if err != nil {
		return interval.Calendar{}, err
	}
	ws, err := time.ParseInLocation("2006-01-02", c.WeekStart, loc)
	if err != nil {
		return interval.Calendar{}, fmt.Errorf("week_start: %w", err)
	}
	return interval.NewCalendar(loc, ws, c.Days, c.AnchorYear), nil
}

func (c HorizonConfig) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// LoadHorizonConfig loads a HorizonConfig from a JSON or YAML file.
func LoadHorizonConfig(path string) (HorizonConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return HorizonConfig{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeHorizonConfig(f, ext)
}

// DecodeHorizonConfig reads a HorizonConfig from r on top of
// DefaultHorizonConfig, then validates it.
func DecodeHorizonConfig(r io.Reader, format string) (HorizonConfig, error) {
	cfg := DefaultHorizonConfig()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", format)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
