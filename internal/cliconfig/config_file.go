package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// The source file is per-invocation and has no file setting.
type FileConfig struct {
	Dir            string `toml:"dir"`
	IP             string `toml:"ip"`
	Machine        string `toml:"machine"`
	Wait           string `toml:"wait"`
	HTTPTimeout    string `toml:"http_timeout"`
	MaxVerifyBytes int64  `toml:"max_verify_bytes"`
	LogLevel       string `toml:"log_level"`
	Quiet          *bool  `toml:"quiet"`
	Delete         *bool  `toml:"delete"`
	DeleteX3G      *bool  `toml:"x3g"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.flashship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".flashship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("dir", fc.Dir, &cfg.Dir)
	s.setString("ip", fc.IP, &cfg.IP)
	s.setString("machine", fc.Machine, &cfg.Machine)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("wait", fc.Wait, &cfg.Wait); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt64("max-verify-bytes", fc.MaxVerifyBytes, &cfg.MaxVerifyBytes)

	s.setBool("quiet", fc.Quiet, &cfg.Quiet)
	s.setBool("delete", fc.Delete, &cfg.Delete)
	s.setBool("x3g", fc.DeleteX3G, &cfg.DeleteX3G)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
