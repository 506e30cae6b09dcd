package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	lru "github.com/hashicorp/golang-lru"

	"kbqa/internal/retrieval"
	"kbqa/internal/textutil"
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL          string
	APIKey           string
	Model            string
	ExpectedSize     int // Expected vector size for validation
	BatchSize        int
	MaxTokensPerCall int
	Retry            RetryPolicy
	client           *http.Client
	cache            *lru.Cache
}

// EmbeddingsOption configures an EmbeddingsClient.
type EmbeddingsOption func(*EmbeddingsClient)

// WithBatching caps each request by text count and estimated tokens.
func WithBatching(batchSize, maxTokensPerCall int) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		c.BatchSize = batchSize
		c.MaxTokensPerCall = maxTokensPerCall
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(policy RetryPolicy) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		c.Retry = policy
	}
}

// WithCache keeps up to size embeddings keyed by input text.
func WithCache(size int) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		if size <= 0 {
			return
		}
		if cache, err := lru.New(size); err == nil {
			c.cache = cache
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		c.client = hc
	}
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the configured embedding dimension; every returned vector is checked against it.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int, opts ...EmbeddingsOption) *EmbeddingsClient {
	c := &EmbeddingsClient{
		BaseURL:          baseURL,
		APIKey:           apiKey,
		Model:            model,
		ExpectedSize:     expectedSize,
		BatchSize:        64,
		MaxTokensPerCall: 8000,
		Retry:            DefaultRetryPolicy,
		client:           http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// Dimension returns the expected vector size.
func (c *EmbeddingsClient) Dimension() int {
	return c.ExpectedSize
}

// EmbedTexts generates embeddings for the given texts, one per input, in order.
// Cached texts are not sent again. The rest are split into batches bounded by
// BatchSize and MaxTokensPerCall. A vector of the wrong size fails with a
// retrieval.DimensionError and is never retried.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	result := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if vec, ok := c.cached(text); ok {
			result[i] = vec
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return result, nil
	}

	pending := make([]string, len(missing))
	for i, idx := range missing {
		pending[i] = texts[idx]
	}

	offset := 0
	for _, batch := range c.batches(pending) {
		vecs, err := c.embedWithRetry(ctx, batch)
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			idx := missing[offset+j]
			result[idx] = vec
			if c.cache != nil {
				c.cache.Add(texts[idx], vec)
			}
		}
		offset += len(batch)
	}

	return result, nil
}

func (c *EmbeddingsClient) cached(text string) ([]float32, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(text)
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float32)
	return vec, ok
}

// batches splits texts so that no batch exceeds BatchSize texts or
// MaxTokensPerCall estimated tokens. A text that alone exceeds the token
// limit is sent in a batch of its own.
func (c *EmbeddingsClient) batches(texts []string) [][]string {
	var out [][]string
	var current []string
	tokens := 0
	for _, text := range texts {
		cost := textutil.EstimateTokens(text)
		full := c.BatchSize > 0 && len(current) >= c.BatchSize
		overTokens := c.MaxTokensPerCall > 0 && tokens+cost > c.MaxTokensPerCall
		if len(current) > 0 && (full || overTokens) {
			out = append(out, current)
			current = nil
			tokens = 0
		}
		current = append(current, text)
		tokens += cost
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func (c *EmbeddingsClient) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	return retry(ctx, c.Retry, "embedding request", func() ([][]float32, error) {
		return c.embedBatch(ctx, texts)
	})
}

func (c *EmbeddingsClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: texts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	// Convert []float64 to []float32 and validate size
	result := make([][]float32, len(embeddingsResp.Data))
	for i, data := range embeddingsResp.Data {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, &retrieval.DimensionError{Expected: c.ExpectedSize, Got: len(data.Embedding), Where: fmt.Sprintf("embedding %d", i)}
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, nil
}
