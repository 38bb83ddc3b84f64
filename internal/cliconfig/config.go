package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/flashship/internal/domain"
)

const (
	// DefaultIP is the card address used when --ip is not given.
	DefaultIP = "192.168.29.3"
	// DefaultMachine is the gpx machine type.
	DefaultMachine = "r1d"
	// DefaultWait is the grace delay for converter output.
	DefaultWait = 10 * time.Second
	// DefaultMaxVerifyBytes bounds the remote digest.
	DefaultMaxVerifyBytes int64 = 100 << 20
)

// Config holds CLI configuration for flashship.
type Config struct {
	Dir  string
	File string
	IP   string

	Quiet     bool
	Delete    bool
	DeleteX3G bool

	Machine        string
	Wait           time.Duration
	HTTPTimeout    time.Duration
	MaxVerifyBytes int64
	LogLevel       string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		IP:             DefaultIP,
		Machine:        DefaultMachine,
		Wait:           DefaultWait,
		MaxVerifyBytes: DefaultMaxVerifyBytes,
		LogLevel:       zerolog.InfoLevel.String(),
	}
}

// MissingArgs returns the names of required settings that are empty, in
// the order dir, file, ip.
func (c *Config) MissingArgs() []string {
	var missing []string
	if c.Dir == "" {
		missing = append(missing, "dir")
	}
	if c.File == "" {
		missing = append(missing, "file")
	}
	if c.IP == "" {
		missing = append(missing, "ip")
	}
	return missing
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if missing := c.MissingArgs(); len(missing) > 0 {
		return fmt.Errorf("%w: %s must be specified", domain.ErrInvalidConfig, missing[0])
	}

	// Ensure no trailing slash
	c.IP = strings.TrimRight(c.IP, "/")

	if c.Machine == "" {
		c.Machine = DefaultMachine
	}
	if c.Wait < 0 {
		return fmt.Errorf("%w: wait must not be negative", domain.ErrInvalidConfig)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxVerifyBytes <= 0 {
		return fmt.Errorf("%w: max-verify-bytes must be positive", domain.ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log-level: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 sets an int64 value if positive and flag not changed.
func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setInt64FromString parses a string to int64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
