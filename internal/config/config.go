// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory backfill queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of backfill workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the record-ID deduplication window.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the history store.
	ShardCount int `koanf:"shard_count"`

	// ChunkSize and ChunkOverlap control semantic chunking, in characters.
	ChunkSize    int `koanf:"chunk_size"`
	ChunkOverlap int `koanf:"chunk_overlap"`

	// DefaultTopK bounds similarity query results when unspecified.
	DefaultTopK int `koanf:"default_top_k"`

	// EmbeddingProvider selects the embedder: "hash" or "ollama".
	EmbeddingProvider string `koanf:"embedding_provider"`

	// EmbeddingDim sets the hash embedder's vector dimension.
	EmbeddingDim int `koanf:"embedding_dim"`

	// OllamaURL and OllamaModel configure the ollama provider.
	OllamaURL   string `koanf:"ollama_url"`
	OllamaModel string `koanf:"ollama_model"`

	// Risk weights combine the cognitive, genetic and lifestyle sub-scores
	// into the overall risk. They must be positive.
	RiskWeightCognitive float64 `koanf:"risk_weight_cognitive"`
	RiskWeightGenetic   float64 `koanf:"risk_weight_genetic"`
	RiskWeightLifestyle float64 `koanf:"risk_weight_lifestyle"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		ShardCount:        8,
		ChunkSize:         500,
		ChunkOverlap:      50,
		DefaultTopK:       3,
		EmbeddingProvider: "hash",
		EmbeddingDim:      384,
		OllamaURL:         "http://localhost:11434",
		OllamaModel:       "nomic-embed-text",

		RiskWeightCognitive: 0.4,
		RiskWeightGenetic:   0.3,
		RiskWeightLifestyle: 0.3,
	}
}
