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
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if MNEMO_CONFIG is set
//  3. env (prefix MNEMO_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("MNEMO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MNEMO_ADDR, MNEMO_QUEUE_SIZE, ...
	// Map env keys like MNEMO_QUEUE_SIZE -> queue_size (flat keys).
	envProvider := env.Provider("MNEMO_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "mnemo_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", ErrInvalidConfig)
	case c.EmbeddingProvider != "hash" && c.EmbeddingProvider != "ollama":
		return fmt.Errorf("%w: embedding_provider must be hash or ollama", ErrInvalidConfig)
	case c.RiskWeightCognitive <= 0 || c.RiskWeightGenetic <= 0 || c.RiskWeightLifestyle <= 0:
		return fmt.Errorf("%w: risk weights must be positive", ErrInvalidConfig)
	}
	return nil
}
