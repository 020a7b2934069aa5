// Package embedding wraps remote text-embedding providers behind a small
// interface so the duplicate-detection engine can be tested without network
// access and can degrade gracefully when the provider is down.
package embedding

import "context"

// Embedder generates vector embeddings from text.
//
// Implementations make at most one provider call per Embed invocation and
// never retry internally; retry and fan-out policy belongs to the caller.
// All provider-side failures (unreachable, quota, malformed response) are
// reported as errors wrapping ErrUnavailable so callers can distinguish
// "provider down" from programming errors.
type Embedder interface {
	// Embed returns a fixed-length vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName identifies the underlying embedding model. Vectors from
	// different models are not comparable.
	ModelName() string
}
