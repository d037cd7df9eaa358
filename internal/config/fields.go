package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// FieldType classifies the kind of value a config field accepts.
type FieldType string

const (
	// FieldBool accepts true or false.
	FieldBool FieldType = "bool"
	// FieldURL accepts an http, https, or file URL.
	FieldURL FieldType = "url"
)

// FieldDef describes one dotted config key.
type FieldDef struct {
	Key  string
	Type FieldType
	get  func(c *Config) string
	set  func(c *Config, value string) error
}

var fields = []FieldDef{
	urlField("mirror.index_url", func(c *Config) *string { return &c.Mirror.IndexURL }),
	urlField("mirror.download_base_url", func(c *Config) *string { return &c.Mirror.DownloadBaseURL }),
	urlField("nightly.dist_server", func(c *Config) *string { return &c.Nightly.DistServer }),
	urlField("nightly.download_base_url", func(c *Config) *string { return &c.Nightly.DownloadBaseURL }),
	boolField("installation.backup_enabled", func(c *Config) *bool { return &c.Installation.BackupEnabled }),
	boolField("installation.verify_checksums", func(c *Config) *bool { return &c.Installation.VerifyChecksums }),
}

func urlField(key string, ptr func(c *Config) *string) FieldDef {
	return FieldDef{
		Key:  key,
		Type: FieldURL,
		get:  func(c *Config) string { return *ptr(c) },
		set: func(c *Config, value string) error {
			value = strings.TrimSpace(value)
			if err := validateEndpoint(value); err != nil {
				return fmt.Errorf(messages.ConfigInvalidValueFmt, key, value, err)
			}
			*ptr(c) = value
			return nil
		},
	}
}

func boolField(key string, ptr func(c *Config) *bool) FieldDef {
	return FieldDef{
		Key:  key,
		Type: FieldBool,
		get:  func(c *Config) string { return strconv.FormatBool(*ptr(c)) },
		set: func(c *Config, value string) error {
			parsed, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf(messages.ConfigInvalidValueFmt, key, value, err)
			}
			*ptr(c) = parsed
			return nil
		},
	}
}

// LookupField returns the field definition for key.
func LookupField(key string) (FieldDef, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of key in cfg.
func Get(cfg Config, key string) (string, error) {
	f, ok := LookupField(key)
	if !ok {
		return "", fmt.Errorf(messages.ConfigUnknownKeyFmt, key, strings.Join(Keys(), ", "))
	}
	return f.get(&cfg), nil
}

// Set returns a copy of cfg with key set to value.
func Set(cfg Config, key string, value string) (Config, error) {
	f, ok := LookupField(key)
	if !ok {
		return Config{}, fmt.Errorf(messages.ConfigUnknownKeyFmt, key, strings.Join(Keys(), ", "))
	}
	if err := f.set(&cfg, value); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
