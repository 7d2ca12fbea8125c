package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/meigma/asar"
)

// configEnv names the environment variable consulted when --config is not
// given. There is no other discovery.
const configEnv = "ASAR_CONFIG"

// Config holds defaults for every command. Flags override it.
type Config struct {
	// Open configures how archives are decoded.
	Open OpenConfig `yaml:"open"`

	// Pack configures pack.
	Pack PackConfig `yaml:"pack"`

	// Extract configures extract, extract-file and check.
	Extract ExtractConfig `yaml:"extract"`

	// Check configures check.
	Check CheckConfig `yaml:"check"`
}

// OpenConfig configures archive decoding.
type OpenConfig struct {
	// StrictMarker rejects archives whose first prefix field is not 4.
	// Default: true
	StrictMarker bool `yaml:"strict_marker"`
}

// PackConfig configures packing.
type PackConfig struct {
	// Order is the directory walk order: "sorted" or "native".
	// Default: sorted
	Order string `yaml:"order"`

	// Padding aligns the header: "none", "4" or "8".
	// Default: none
	Padding string `yaml:"padding"`

	// Integrity records SHA-256 integrity metadata for every file.
	// Default: false
	Integrity bool `yaml:"integrity"`

	// BlockSize is the integrity block size in bytes. Zero selects 4 MiB.
	BlockSize int `yaml:"block_size"`
}

// ExtractConfig configures extraction.
type ExtractConfig struct {
	// Verify checks integrity metadata when present.
	// Default: true
	Verify bool `yaml:"verify"`
}

// CheckConfig configures check.
type CheckConfig struct {
	// Jobs is the number of archives checked concurrently.
	// Default: number of CPUs
	Jobs int `yaml:"jobs"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Open:    OpenConfig{StrictMarker: true},
		Pack:    PackConfig{Order: asar.OrderSorted.String(), Padding: asar.PaddingNone.String()},
		Extract: ExtractConfig{Verify: true},
		Check:   CheckConfig{Jobs: runtime.NumCPU()},
	}
}

// LoadConfig loads the file at path, or at $ASAR_CONFIG when path is
// empty. With neither set it returns DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every enumerated value is known.
func (c *Config) Validate() error {
	var errs []error
	if _, err := asar.ParseOrder(c.Pack.Order); err != nil {
		errs = append(errs, fmt.Errorf("pack.order: %w", err))
	}
	if _, err := asar.ParsePadding(c.Pack.Padding); err != nil {
		errs = append(errs, fmt.Errorf("pack.padding: %w", err))
	}
	if c.Pack.BlockSize < 0 || uint64(c.Pack.BlockSize) > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("pack.block_size: must be between 0 and %d, got %d", uint64(math.MaxUint32), c.Pack.BlockSize))
	}
	if c.Check.Jobs < 1 {
		errs = append(errs, fmt.Errorf("check.jobs: must be at least 1, got %d", c.Check.Jobs))
	}
	return errors.Join(errs...)
}
