package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load returns the defaults overlaid with the YAML file at path (if any)
// and then with environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
		}

		if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv applies SNAPDETECT_* and LOG_LEVEL overrides.
func (c *Config) LoadEnv() error {
	if v := os.Getenv("SNAPDETECT_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("SNAPDETECT_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SNAPDETECT_QUALITY: %w", err)
		}
		c.Quality = q
	}
	if v := os.Getenv("SNAPDETECT_SAVE"); v != "" {
		save, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SNAPDETECT_SAVE: %w", err)
		}
		c.SaveToDisk = save
	}
	if v := os.Getenv("SNAPDETECT_SAVE_DIR"); v != "" {
		c.SaveDir = v
	}
	if v := os.Getenv("SNAPDETECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SNAPDETECT_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}
