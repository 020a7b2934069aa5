package deduplication

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Descriptor is a corpus entry as seen by the engine: an opaque ID, the
// risk description text, and an optional cached embedding. The engine
// only reads descriptors; it never mutates caller-owned data.
type Descriptor struct {
	ID          string
	Description string
	Embedding   []float32
}

// LexicalResult reports the outcome of the lexical tier
type LexicalResult struct {
	// ExactID is the ID of the first corpus entry whose trimmed
	// description equals the candidate verbatim, or "" if none.
	ExactID string

	// Best is the highest fuzzy-similarity corpus entry, or nil for an
	// empty corpus. Best.Score is a Sorensen-Dice bigram ratio in [0,1].
	Best *Match
}

// MatchLexical runs the exact and fuzzy string checks against the corpus.
//
// The fuzzy ratio is a bigram Sorensen-Dice coefficient, case-insensitive,
// bounded [0,1] with 1 meaning identical. Ties keep the earliest corpus
// entry so results are deterministic for a given snapshot order.
func MatchLexical(candidate string, corpus []Descriptor) LexicalResult {
	candidate = strings.TrimSpace(candidate)

	dice := metrics.NewSorensenDice()
	dice.CaseSensitive = false

	var result LexicalResult
	for _, entry := range corpus {
		desc := strings.TrimSpace(entry.Description)
		if desc == "" {
			continue
		}

		if result.ExactID == "" && desc == candidate {
			result.ExactID = entry.ID
		}

		ratio := strutil.Similarity(candidate, desc, dice)
		if result.Best == nil || ratio > result.Best.Score {
			result.Best = &Match{ID: entry.ID, Description: entry.Description, Score: ratio}
		}
	}

	return result
}
