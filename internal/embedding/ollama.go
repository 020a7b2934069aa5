package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnavailable indicates the embedding provider could not produce a
// vector. Callers should treat this as a degraded-mode signal, not a fault.
var ErrUnavailable = errors.New("embedding provider unavailable")

// OllamaConfig holds configuration for the Ollama embedding client
type OllamaConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434/api)
	BaseURL string

	// Model is the embedding model name (default: nomic-embed-text)
	Model string

	// Timeout is the HTTP client timeout for a single embedding request
	// (default: 15s)
	Timeout time.Duration

	// RequestsPerSecond throttles outbound calls so a large corpus backfill
	// does not trip provider-side rate limits (default: 10, 0 = unlimited)
	RequestsPerSecond float64
}

// DefaultOllamaConfig returns the default Ollama client configuration
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:           "http://localhost:11434/api",
		Model:             "nomic-embed-text",
		Timeout:           15 * time.Second,
		RequestsPerSecond: 10,
	}
}

// OllamaClient requests embeddings from a local or remote Ollama server.
// It performs exactly one network call per Embed and reports every failure
// as ErrUnavailable; it keeps no cache and no retry state.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Embedder = (*OllamaClient)(nil)

// NewOllamaClient creates an embedding client for an Ollama server
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	def := DefaultOllamaConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OllamaClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

// ModelName returns the configured embedding model name
func (c *OllamaClient) ModelName() string {
	return c.model
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a vector embedding for the given text
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input text", ErrUnavailable)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	reqBody, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: response missing embedding vector", ErrUnavailable)
	}

	return embedResp.Embedding, nil
}
