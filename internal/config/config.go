// Package config loads the solver configuration: defaults, then an optional
// YAML file, then SATSHARE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "SATSHARE_"

const maxConfigFileSize = 1024 * 1024 // 1MB

type Config struct {
	// Engine is the engine of single-session solves: native or gini.
	// Portfolio workers always use the native engine.
	Engine        string        `koanf:"engine"`
	Seed          float64       `koanf:"seed"`
	RandomVarFreq float64       `koanf:"random_var_freq"`
	Timeout       time.Duration `koanf:"timeout"`

	Portfolio PortfolioConfig `koanf:"portfolio"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type PortfolioConfig struct {
	Workers       int     `koanf:"workers"`
	ExportLimit   int     `koanf:"export_limit"`
	InboxCapacity int     `koanf:"inbox_capacity"`
	GlobalReset   int     `koanf:"global_reset"`
	Filter        string  `koanf:"filter"`
	BloomCapacity uint    `koanf:"bloom_capacity"`
	BloomFPRate   float64 `koanf:"bloom_fp_rate"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint, empty to
	// disable it.
	Addr string `koanf:"addr"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Engine:        "native",
		Seed:          91648253,
		RandomVarFreq: 0,
		Timeout:       0,
		Portfolio: PortfolioConfig{
			Workers:       1,
			ExportLimit:   10,
			InboxCapacity: 10000,
			GlobalReset:   0,
			Filter:        "hash",
			BloomCapacity: 100000,
			BloomFPRate:   0.03,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// sections are the nested keys of Config; SATSHARE_LOG_LEVEL maps to
// log.level but SATSHARE_RANDOM_VAR_FREQ maps to random_var_freq.
var sections = []string{"portfolio", "log", "metrics"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// Load returns the default configuration overridden by the YAML file at
// path (if path is not empty) and by the environment. The result is
// validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Keys absent from k keep their default value.
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s is too large: %d bytes", path, info.Size())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks that every field has a usable value.
func (c *Config) Validate() error {
	switch c.Engine {
	case "native", "gini":
	default:
		return fmt.Errorf("engine must be native or gini, got %q", c.Engine)
	}
	if c.RandomVarFreq < 0 || c.RandomVarFreq > 1 {
		return fmt.Errorf("random_var_freq must be in [0, 1], got %g", c.RandomVarFreq)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	p := c.Portfolio
	if p.Workers < 1 {
		return fmt.Errorf("portfolio.workers must be at least 1, got %d", p.Workers)
	}
	if p.InboxCapacity < 0 {
		return fmt.Errorf("portfolio.inbox_capacity must not be negative, got %d", p.InboxCapacity)
	}
	if p.GlobalReset < 0 {
		return fmt.Errorf("portfolio.global_reset must not be negative, got %d", p.GlobalReset)
	}
	switch p.Filter {
	case "hash", "exact":
	case "bloom":
		if p.BloomCapacity == 0 {
			return fmt.Errorf("portfolio.bloom_capacity must be positive")
		}
		if p.BloomFPRate <= 0 || p.BloomFPRate >= 1 {
			return fmt.Errorf("portfolio.bloom_fp_rate must be in (0, 1), got %g", p.BloomFPRate)
		}
	default:
		return fmt.Errorf("portfolio.filter must be hash, bloom or exact, got %q", p.Filter)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
