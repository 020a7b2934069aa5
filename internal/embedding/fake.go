package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// Fake is a deterministic in-memory Embedder for tests. Texts registered
// in Vectors return their configured vector; any other text maps to a unit
// basis vector chosen by hashing, so identical texts always agree and
// distinct texts are (almost always) orthogonal.
type Fake struct {
	mu sync.Mutex

	// Dim is the dimensionality of generated vectors (default 64)
	Dim int

	// Vectors overrides the generated embedding for specific texts
	Vectors map[string][]float32

	// Err, when set, makes every Embed call fail with it
	Err error

	// FailTexts lists texts whose Embed calls fail with ErrUnavailable
	FailTexts map[string]bool

	// Calls records every text passed to Embed, in order
	Calls []string
}

var _ Embedder = (*Fake)(nil)

// NewFake creates a Fake embedder with the default dimensionality
func NewFake() *Fake {
	return &Fake{
		Dim:       64,
		Vectors:   make(map[string][]float32),
		FailTexts: make(map[string]bool),
	}
}

// ModelName identifies the fake model
func (f *Fake) ModelName() string {
	return "fake-embedder"
}

// Embed returns the configured or hash-derived vector for text
func (f *Fake) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, text)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.FailTexts[text] {
		return nil, fmt.Errorf("%w: simulated failure for %q", ErrUnavailable, text)
	}
	if vec, ok := f.Vectors[text]; ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	dim := f.Dim
	if dim <= 0 {
		dim = 64
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	vec := make([]float32, dim)
	vec[int(h.Sum32())%dim] = 1
	return vec, nil
}

// CallCount reports how many Embed calls were made
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
