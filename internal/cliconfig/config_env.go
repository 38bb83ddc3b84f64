package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (FLASHSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("dir", os.Getenv("FLASHSHIP_DIR"), &cfg.Dir)
	s.setString("ip", os.Getenv("FLASHSHIP_IP"), &cfg.IP)
	s.setString("machine", os.Getenv("FLASHSHIP_MACHINE"), &cfg.Machine)
	s.setString("log-level", os.Getenv("FLASHSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("wait", os.Getenv("FLASHSHIP_WAIT"), &cfg.Wait); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("FLASHSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setInt64FromString("max-verify-bytes", os.Getenv("FLASHSHIP_MAX_VERIFY_BYTES"), &cfg.MaxVerifyBytes); err != nil {
		return err
	}

	s.setBoolFromString("quiet", os.Getenv("FLASHSHIP_QUIET"), &cfg.Quiet)

	return nil
}
