package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Keep policies for duplicate resolution.
const (
	KeepShortestName = "shortest-name"
	KeepLargest      = "largest"
	KeepOldest       = "oldest"
)

// maxWorkers caps the scanning pool regardless of core count.
const maxWorkers = 8

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	// LibraryRoot is the photo library root. Empty means current directory.
	LibraryRoot string `yaml:"library_root"`

	// Workers is the scanning pool size. 0 picks min(NumCPU, 8).
	Workers int `yaml:"workers"`

	// ByMonth organizes into YYYY/YYYY-MM instead of YYYY/YYYY-MM-DD.
	ByMonth bool `yaml:"by_month"`

	// UseExiftool allows metadata extraction through an external exiftool
	// binary for formats goexif cannot decode (RAW, video, HEIC).
	UseExiftool bool `yaml:"use_exiftool"`

	// Cache enables the on-disk scan catalog.
	Cache bool `yaml:"cache"`

	// NearDistance is the Hamming radius for perceptual duplicate matching.
	// 0 matches bit-identical hashes only; 16 is aggressive.
	NearDistance int `yaml:"near_distance"`

	// KeepPolicy decides which member of a duplicate group survives.
	KeepPolicy string `yaml:"keep_policy"`

	// ExtraExtensions are treated as media beyond the built-in sets.
	ExtraExtensions []string `yaml:"extra_extensions"`

	// SkipFolders are directory names excluded from scans, in addition to
	// the built-in system folders.
	SkipFolders []string `yaml:"skip_folders"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "could not read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "could not marshal config")
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no command could act on.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers must be >= 0, got %d", c.Workers)
	}
	if c.NearDistance < 0 || c.NearDistance > 32 {
		return errors.Wrapf(ErrInvalidConfig, "near_distance must be in [0, 32], got %d", c.NearDistance)
	}
	switch c.KeepPolicy {
	case KeepShortestName, KeepLargest, KeepOldest:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown keep_policy %q", c.KeepPolicy)
	}
	return nil
}

// PoolSize resolves the effective worker count.
func (c *Config) PoolSize() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := runtime.NumCPU()
	if n > maxWorkers {
		n = maxWorkers
	}
	return n
}

func defaultConfig() *Config {
	return &Config{
		Workers:      0,
		ByMonth:      false,
		UseExiftool:  true,
		Cache:        true,
		NearDistance: 5,
		KeepPolicy:   KeepShortestName,
	}
}

func findConfigFile() string {
	candidates := []string{
		"./mtool.yaml",
		"./mtool.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "mtool", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
