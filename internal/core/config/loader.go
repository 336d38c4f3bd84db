package config

import (
	"os"

	"importgraph/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML file, applies env overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeUnreadable, "read config"), errors.CtxPath, path)
	}
	return Decode(string(data))
}

// Decode parses a TOML document. Relative paths stay relative; see ResolvePaths.
func Decode(data string) (*Config, error) {
	cfg := newConfig()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.CodeValidationError, "unknown config key "+undecoded[0].String())
	}

	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs every section check in order and returns the first failure.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateDiscovery,
		validatePackages,
		validateParse,
		validateOutput,
		validateHistory,
		validateWatch,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return nil
}
