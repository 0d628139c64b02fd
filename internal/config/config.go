package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (BLAZE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: BLAZE_OUTPUT_DIR -> output_dir, etc.
	if err := k.Load(env.Provider("BLAZE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BLAZE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validPublishModes is the set of recognized publish_mode values.
var validPublishModes = map[PublishMode]bool{
	PublishAll:      true,
	PublishExplicit: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.ContentDir == c.OutputDir {
		return fmt.Errorf("output_dir must differ from content_dir")
	}
	if c.Cache && c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required when cache is enabled")
	}

	if c.PublishMode != "" && !validPublishModes[c.PublishMode] {
		return fmt.Errorf("invalid publish_mode %q: must be one of all, explicit", c.PublishMode)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}

	return nil
}

// Concurrency returns the effective render concurrency.
func (c *Config) Concurrency() int {
	if c.MaxConcurrency <= 0 {
		return 1
	}
	return c.MaxConcurrency
}

// Explicit reports whether only pages marked `publish: true` are published.
func (c *Config) Explicit() bool {
	return c.PublishMode == PublishExplicit
}
