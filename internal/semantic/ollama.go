package semantic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultOllamaTimeout = 30 * time.Second
	embeddingsPath       = "/api/embeddings"
)

// OllamaEmbedder generates embeddings through an Ollama-compatible HTTP
// API. Responses are L2-normalized so cosine similarity reduces to a dot
// product over unit vectors.
type OllamaEmbedder struct {
	client *resty.Client
	model  string
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates an embedder talking to baseURL with the given
// model name.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultOllamaTimeout).
		SetHeader("Content-Type", "application/json")

	return &OllamaEmbedder{
		client: client,
		model:  model,
	}
}

// Embed requests one embedding from the provider.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var result ollamaEmbeddingResponse

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbeddingRequest{Model: e.model, Prompt: text}).
		SetResult(&result).
		Post(embeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding provider returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Embedding) == 0 {
		return nil, errors.New("embedding provider returned an empty vector")
	}

	vec := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		vec[i] = float32(v)
	}
	return normalize(vec), nil
}
