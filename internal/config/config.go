package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AWAITDEMO_"

// Config is the demo configuration.
type Config struct {
	// First and Second are the two delays run sequentially and then
	// concurrently.
	First  time.Duration `koanf:"first"`
	Second time.Duration `koanf:"second"`

	LogLevel   string `koanf:"log-level"`
	LogHandler string `koanf:"log-handler"`
}

// Default returns the delays of the classic demo: one and two seconds.
func Default() Config {
	return Config{
		First:      time.Second,
		Second:     2 * time.Second,
		LogLevel:   "info",
		LogHandler: "dev",
	}
}

// Load reads configuration in priority order:
// 1. Defaults (lowest priority)
// 2. The config file at path, when path is not empty
// 3. Environment variables with the AWAITDEMO_ prefix
//
// CLI flags are applied by the caller on top of the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(defaults(def), nil); err != nil {
		return def, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return def, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := loadEnvironmentVariables(k); err != nil {
		return def, fmt.Errorf("error loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return def, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects delays the awaitables would refuse.
func (c Config) Validate() error {
	if c.First < 0 {
		return fmt.Errorf("first must not be negative, got %v", c.First)
	}
	if c.Second < 0 {
		return fmt.Errorf("second must not be negative, got %v", c.Second)
	}
	return nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch filepath.Ext(path) {
	case ".json":
		parser = json.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return fmt.Errorf("config file must be .json, .yaml or .yml")
	}
	return k.Load(file.Provider(path), parser)
}

// loadEnvironmentVariables maps AWAITDEMO_LOG_LEVEL to log-level and
// so on.
func loadEnvironmentVariables(k *koanf.Koanf) error {
	return k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(key, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(key, "_", "-")), value
	}), nil)
}

// defaults exposes a Config as a koanf provider so that defaults go
// through the same decoding as every other source.
type defaults Config

func (d defaults) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("defaults provider does not support ReadBytes")
}

func (d defaults) Read() (map[string]any, error) {
	return map[string]any{
		"first":       d.First.String(),
		"second":      d.Second.String(),
		"log-level":   d.LogLevel,
		"log-handler": d.LogHandler,
	}, nil
}
