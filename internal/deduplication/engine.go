package deduplication

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/riskhound/riskhound/internal/embedding"
	"golang.org/x/sync/semaphore"
)

// Engine is the tiered duplicate detection orchestrator. Tiers run in
// strict order - exact, lexical, statistical, semantic - and each tier
// only runs if no earlier tier already decided duplication. The semantic
// tier is the only one that touches the network and the only one allowed
// to degrade; its failure is reflected in the verdict, never raised as an
// engine fault.
type Engine struct {
	embedder embedding.Embedder // nil disables the semantic tier
	cfg      Config
	sem      *semaphore.Weighted
}

// NewEngine creates a duplicate detection engine.
//
// embedder may be nil, which disables the semantic tier the same way
// Config.DisableSemantic does - useful for offline and test environments.
func NewEngine(embedder embedding.Embedder, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		embedder: embedder,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentEmbeds)),
	}, nil
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// CheckDuplicate decides whether the candidate description duplicates any
// entry of the supplied corpus snapshot.
//
// The only hard failure is an invalid candidate (empty or over-length
// description); every provider or computation problem is absorbed into the
// verdict. The corpus is read-only for the duration of the call and the
// same inputs always produce the same verdict.
func (e *Engine) CheckDuplicate(ctx context.Context, candidate string, corpus []Descriptor) (*Verdict, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, fmt.Errorf("candidate description is required")
	}
	if len(candidate) > e.cfg.MaxDescriptionLength {
		return nil, fmt.Errorf("candidate description must be %d characters or less (got %d)",
			e.cfg.MaxDescriptionLength, len(candidate))
	}

	corpus = e.sanitizeCorpus(corpus)

	if len(corpus) == 0 {
		return &Verdict{
			IsDuplicate: false,
			Kind:        MatchNone,
			Reason:      "Corpus is empty; nothing to compare against",
			Compared:    0,
		}, nil
	}

	// Tier 1 + 2: exact and fuzzy string matching (one corpus pass)
	lex := MatchLexical(candidate, corpus)

	if lex.ExactID != "" {
		matched := findDescriptor(corpus, lex.ExactID)
		return &Verdict{
			IsDuplicate: true,
			Kind:        MatchExact,
			Reason:      "Exact match found",
			Matched:     &Match{ID: matched.ID, Description: matched.Description, Score: 1.0},
			Compared:    len(corpus),
		}, nil
	}

	if lex.Best != nil && lex.Best.Score > e.cfg.LexicalThreshold {
		best := *lex.Best
		return &Verdict{
			IsDuplicate: true,
			Kind:        MatchLexicalKind,
			Reason:      fmt.Sprintf("High string similarity (%.0f%%)", best.Score*100),
			Matched:     &best,
			Compared:    len(corpus),
		}, nil
	}

	// Tier 3: corpus-statistical scoring. Runs before the semantic tier as
	// a free pre-filter; a clear statistical hit avoids paying for any
	// embedding round trips.
	if statID, statScore := ScoreAgainstCorpus(candidate, corpus); statScore > e.cfg.StatisticalThreshold {
		matched := findDescriptor(corpus, statID)
		return &Verdict{
			IsDuplicate: true,
			Kind:        MatchStatistical,
			Reason:      fmt.Sprintf("High term overlap (TF-IDF score %.2f)", statScore),
			Matched:     &Match{ID: matched.ID, Description: matched.Description, Score: statScore},
			Compared:    len(corpus),
		}, nil
	}

	// Tier 4: embedding-based semantic similarity
	if e.embedder == nil || e.cfg.DisableSemantic {
		return &Verdict{
			IsDuplicate: false,
			Kind:        MatchNone,
			Reason:      fmt.Sprintf("No duplicate found (semantic tier disabled); %s", lexDiagnostic(lex)),
			Compared:    len(corpus),
		}, nil
	}

	return e.checkSemantic(ctx, candidate, corpus, lex)
}

// checkSemantic runs the embedding tier: acquire the candidate vector,
// backfill missing corpus vectors concurrently, and compare cosines.
func (e *Engine) checkSemantic(ctx context.Context, candidate string, corpus []Descriptor, lex LexicalResult) (*Verdict, error) {
	candidateVec, err := e.embed(ctx, candidate)
	if err != nil {
		log.Printf("[DEDUP] candidate embedding unavailable: %v", err)
		return &Verdict{
			IsDuplicate: false,
			Kind:        MatchSemanticUnavailable,
			Reason: fmt.Sprintf("Could not generate embedding; falling back to lexical/statistical signals only (%s)",
				lexDiagnostic(lex)),
			Compared: len(corpus),
		}, nil
	}

	vectors, backfilled := e.corpusVectors(ctx, corpus)

	bestIdx := -1
	var bestScore float64
	available := 0
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		available++
		if score := Cosine(candidateVec, vec); bestIdx < 0 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	verdict := &Verdict{
		Compared:             len(corpus),
		CandidateEmbedding:   candidateVec,
		BackfilledEmbeddings: backfilled,
	}

	if available == 0 {
		verdict.Kind = MatchSemanticUnavailable
		verdict.Reason = fmt.Sprintf("Could not obtain embeddings for any corpus entry; falling back to lexical/statistical signals only (%s)",
			lexDiagnostic(lex))
		return verdict, nil
	}

	best := corpus[bestIdx]
	if bestScore >= e.cfg.SemanticThreshold {
		verdict.IsDuplicate = true
		verdict.Kind = MatchSemantic
		verdict.Reason = fmt.Sprintf("High semantic similarity (cosine %.2f)", bestScore)
		verdict.Matched = &Match{ID: best.ID, Description: best.Description, Score: bestScore}
		return verdict, nil
	}

	verdict.Kind = MatchNone
	verdict.Reason = fmt.Sprintf("No duplicate found; highest semantic similarity %.2f (%s)", bestScore, best.ID)
	return verdict, nil
}

// corpusVectors returns one embedding per corpus entry, reusing cached
// embeddings and backfilling missing ones concurrently. A failed or
// timed-out backfill leaves that entry's slot nil, degrading only that
// single comparison.
func (e *Engine) corpusVectors(ctx context.Context, corpus []Descriptor) ([][]float32, map[string][]float32) {
	vectors := make([][]float32, len(corpus))

	type backfillResult struct {
		idx int
		vec []float32
	}
	results := make(chan backfillResult, len(corpus))
	pending := 0

	for i, entry := range corpus {
		if len(entry.Embedding) > 0 {
			vectors[i] = entry.Embedding
			continue
		}

		pending++
		go func(idx int, desc string) {
			if err := e.sem.Acquire(ctx, 1); err != nil {
				results <- backfillResult{idx: idx}
				return
			}
			defer e.sem.Release(1)

			vec, err := e.embed(ctx, desc)
			if err != nil {
				log.Printf("[DEDUP] embedding backfill failed for corpus entry %s: %v", corpus[idx].ID, err)
				results <- backfillResult{idx: idx}
				return
			}
			results <- backfillResult{idx: idx, vec: vec}
		}(i, entry.Description)
	}

	backfilled := make(map[string][]float32)
	for ; pending > 0; pending-- {
		r := <-results
		if r.vec != nil {
			vectors[r.idx] = r.vec
			backfilled[corpus[r.idx].ID] = r.vec
		}
	}

	return vectors, backfilled
}

// embed requests a single embedding bounded by the configured timeout
func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.EmbedTimeout)
	defer cancel()
	return e.embedder.Embed(embedCtx, text)
}

// sanitizeCorpus drops entries with blank descriptions, deduplicates by ID
// (first occurrence wins), and caps the snapshot at MaxCandidates. The
// input slice is never modified.
func (e *Engine) sanitizeCorpus(corpus []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(corpus))
	seen := make(map[string]bool, len(corpus))
	for _, entry := range corpus {
		if strings.TrimSpace(entry.Description) == "" {
			continue
		}
		if seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		out = append(out, entry)
		if len(out) >= e.cfg.MaxCandidates {
			break
		}
	}
	return out
}

// findDescriptor returns the corpus entry with the given ID. Only called
// with IDs produced from the same sanitized corpus, so a hit is guaranteed.
func findDescriptor(corpus []Descriptor, id string) Descriptor {
	for _, entry := range corpus {
		if entry.ID == id {
			return entry
		}
	}
	return Descriptor{ID: id}
}

// lexDiagnostic summarizes the lexical tier's best observation for use in
// degraded-mode reasons
func lexDiagnostic(lex LexicalResult) string {
	if lex.Best == nil {
		return "no lexical signal"
	}
	return fmt.Sprintf("best string similarity %.0f%% with %s", lex.Best.Score*100, lex.Best.ID)
}
