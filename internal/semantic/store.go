// Package semantic stores embedded chunks of record serializations and
// serves nearest-neighbor similarity queries over them.
//
// Retrieval is a linear scan over every stored chunk: correctness-exact
// but O(n) per query. That is a scaling limitation, not a bug; there is no
// index and no eviction, and retention is unbounded.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/mnemo/pkg/metrics"
)

// ErrEmbedding tags ingest failures caused by the embedding provider.
var ErrEmbedding = errors.New("embedding failed")

// defaultTopK bounds query results when the caller passes no limit.
const defaultTopK = 3

// Chunk is a fixed-size character window of a record's serialization plus
// its embedding and provenance. Immutable once stored.
type Chunk struct {
	Text      string    `json:"text"`
	Vector    []float32 `json:"-"`
	SourceID  string    `json:"source_id"`
	Timestamp time.Time `json:"timestamp"`
	Index     int       `json:"chunk_index"`
}

// Match pairs a chunk with its similarity to a query.
type Match struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// Store holds chunks in memory. Concurrent ingests append independently;
// a query racing an ingest may or may not observe it (read-uncommitted
// semantics are acceptable at this layer).
type Store struct {
	mu     sync.RWMutex
	chunks []Chunk

	embedder  Embedder
	chunkSize int
	overlap   int
	topK      int
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithChunking sets the window size and overlap in characters. Overlap
// must stay below size; invalid pairs are ignored.
func WithChunking(size, overlap int) Option {
	return func(s *Store) {
		if size > 0 && overlap >= 0 && overlap < size {
			s.chunkSize = size
			s.overlap = overlap
		}
	}
}

// WithDefaultTopK sets the result-count limit applied when a query passes
// none.
func WithDefaultTopK(k int) Option {
	return func(s *Store) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewStore creates a store backed by the given embedding provider.
func NewStore(embedder Embedder, opts ...Option) *Store {
	s := &Store{
		embedder:  embedder,
		chunkSize: defaultChunkSize,
		overlap:   defaultChunkOverlap,
		topK:      defaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest serializes record, chunks the text and embeds every chunk before
// storing any of it. An embedding failure aborts the whole record's ingest
// so no partial chunk set is ever persisted; previously stored chunks are
// untouched.
func (s *Store) Ingest(ctx context.Context, sourceID string, ts time.Time, record any) ([]Chunk, error) {
	text, err := serialize(record)
	if err != nil {
		return nil, fmt.Errorf("serialize record %s: %w", sourceID, err)
	}

	pieces := splitChunks(text, s.chunkSize, s.overlap)
	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		start := time.Now()
		vec, err := s.embedder.Embed(ctx, piece)
		metrics.RecordEmbeddingLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordEmbeddingFailure()
			return nil, fmt.Errorf("chunk %d of record %s: %w: %w", i, sourceID, ErrEmbedding, err)
		}
		chunks = append(chunks, Chunk{
			Text:      piece,
			Vector:    vec,
			SourceID:  sourceID,
			Timestamp: ts,
			Index:     i,
		})
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, chunks...)
	total := len(s.chunks)
	s.mu.Unlock()

	metrics.RecordChunksIngested(len(chunks))
	metrics.UpdateChunksStored(total)
	return chunks, nil
}

// Query embeds the free-text query and returns the topK most similar
// chunks in descending similarity, ties broken by insertion order. A query
// against an empty store returns an empty result, not an error.
func (s *Store) Query(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = s.topK
	}

	start := time.Now()
	defer func() {
		metrics.RecordQuery()
		metrics.RecordQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w: %w", ErrEmbedding, err)
	}

	s.mu.RLock()
	matches := make([]Match, len(s.chunks))
	for i, c := range s.chunks {
		matches[i] = Match{Chunk: c, Similarity: cosine(queryVec, c.Vector)}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// serialize renders a record to its canonical text form. Strings pass
// through unchanged; everything else is JSON with sorted object keys.
func serialize(record any) (string, error) {
	if text, ok := record.(string); ok {
		return text, nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
