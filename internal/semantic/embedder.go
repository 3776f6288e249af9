package semantic

import (
	"context"
	"hash/fnv"
	"strings"
)

// Embedder maps text to a fixed-dimension dense vector. Implementations
// must be deterministic for identical input within a process lifetime;
// cross-process reproducibility is not required.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// defaultHashDim matches the output dimension of common sentence
// transformer models so stores can switch providers without resizing.
const defaultHashDim = 384

// HashEmbedder is a local, dependency-free embedding provider using hashed
// character trigrams. It is not a semantic model, but overlapping text
// shares trigrams and therefore scores high cosine similarity, which is
// enough for offline operation and deterministic tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
// Non-positive dimensions fall back to the default.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDim
	}
	return &HashEmbedder{dim: dim}
}

// Embed never fails; the error return satisfies the Embedder contract.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)

	runes := []rune(strings.ToLower(text))
	if len(runes) == 0 {
		return vec, nil
	}

	// Pad short inputs so even single characters produce a signal.
	for len(runes) < 3 {
		runes = append(runes, ' ')
	}

	for i := 0; i+3 <= len(runes); i++ {
		hasher := fnv.New32a()
		for _, r := range runes[i : i+3] {
			var buf [4]byte
			buf[0] = byte(r)
			buf[1] = byte(r >> 8)
			buf[2] = byte(r >> 16)
			buf[3] = byte(r >> 24)
			hasher.Write(buf[:])
		}
		sum := hasher.Sum32()
		bucket := int(sum) % h.dim
		if bucket < 0 {
			bucket += h.dim
		}
		// Spread mass across signs so unrelated texts cancel out.
		if sum&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	return normalize(vec), nil
}
