package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/moonbit-up/internal/fsutil"
	"github.com/conn-castle/moonbit-up/internal/messages"
)

// ErrConfigValidation wraps config validation failures, as opposed to TOML
// syntax or filesystem errors. Callers can match it with errors.Is.
var ErrConfigValidation = errors.New("config validation failed")

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf(messages.ConfigReadFileFmt, path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML data on top of Default() and validates the result.
// Keys missing from data keep their default values; unknown keys are rejected.
func Parse(data []byte, source string) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		return Config{}, fmt.Errorf("%w: "+messages.ConfigUnrecognizedKeysFmt, ErrConfigValidation, source, err)
	}
	if err := cfg.Validate(source); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}

// decodeStrict re-decodes data with unknown-field rejection, which toml.Unmarshal
// silently tolerates.
func decodeStrict(data []byte) error {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&cfg)
}

// Render encodes cfg as TOML.
func Render(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigEncodeFmt, err)
	}
	return data, nil
}

// Save validates cfg and writes it to path atomically.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(path); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	data, err := Render(cfg)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.ConfigWriteFileFmt, path, err)
	}
	return nil
}

// Reset overwrites the config file at path with Default() and returns it.
func Reset(path string) (Config, error) {
	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
