package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if BIKEFIT_CONFIG is set
//  3. env (prefix BIKEFIT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("BIKEFIT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: BIKEFIT_ADDR, BIKEFIT_DB_PATH, ...
	// Map env keys like BIKEFIT_DB_PATH -> db_path (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("BIKEFIT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "bikefit_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.PersistQueueSize <= 0 {
		return fmt.Errorf("%w: persist_queue_size must be positive", ErrInvalidConfig)
	}
	if c.PersistWorkerCount <= 0 {
		return fmt.Errorf("%w: persist_worker_count must be positive", ErrInvalidConfig)
	}
	if c.MaxReportLimit <= 0 {
		return fmt.Errorf("%w: max_report_limit must be positive", ErrInvalidConfig)
	}
	if c.KneeBendMin >= c.KneeBendMax {
		return fmt.Errorf("%w: knee bend band is inverted", ErrInvalidConfig)
	}
	if c.TorsoMin >= c.TorsoMax {
		return fmt.Errorf("%w: torso band is inverted", ErrInvalidConfig)
	}
	if c.ElbowMin >= c.ElbowMax {
		return fmt.Errorf("%w: elbow band is inverted", ErrInvalidConfig)
	}
	if c.PixelToCm <= 0 {
		return fmt.Errorf("%w: pixel_to_cm must be positive", ErrInvalidConfig)
	}
	return nil
}
