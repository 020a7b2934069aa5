package deduplication

import "fmt"

// MatchKind identifies which tier (if any) decided the verdict
type MatchKind string

const (
	// MatchExact means the candidate equals an existing description verbatim
	MatchExact MatchKind = "exact_match"

	// MatchLexicalKind means the fuzzy string ratio cleared its threshold
	MatchLexicalKind MatchKind = "lexical_match"

	// MatchStatistical means the TF-IDF score cleared its threshold
	MatchStatistical MatchKind = "statistical_match"

	// MatchSemantic means embedding cosine similarity cleared its threshold
	MatchSemantic MatchKind = "semantic_match"

	// MatchNone means every tier ran (or was deliberately disabled) and
	// nothing cleared a threshold
	MatchNone MatchKind = "no_match"

	// MatchSemanticUnavailable means no tier matched AND the semantic tier
	// could not run because embedding acquisition failed. Callers can
	// distinguish "confirmed not a duplicate" from "could not fully check".
	MatchSemanticUnavailable MatchKind = "semantic_unavailable_no_match"
)

// IsValid checks if the match kind value is valid
func (k MatchKind) IsValid() bool {
	switch k {
	case MatchExact, MatchLexicalKind, MatchStatistical, MatchSemantic,
		MatchNone, MatchSemanticUnavailable:
		return true
	}
	return false
}

// Match identifies the corpus entry that triggered (or came closest to
// triggering) a duplicate decision
type Match struct {
	// ID is the matched corpus entry's opaque identifier
	ID string `json:"id"`

	// Description is the matched entry's description, surfaced so a human
	// can judge the flagged similarity
	Description string `json:"description"`

	// Score is the similarity in the deciding tier's own scale:
	// 1.0 for exact, [0,1] fuzzy ratio, unbounded TF-IDF, [-1,1] cosine
	Score float64 `json:"score"`
}

// Verdict is the engine's final structured output for one duplicate check
type Verdict struct {
	// IsDuplicate is true if any tier cleared its threshold
	IsDuplicate bool `json:"is_duplicate"`

	// Kind records which tier decided
	Kind MatchKind `json:"kind"`

	// Reason is a human-readable justification, always set, including in
	// degraded cases ("could not generate embedding; ...")
	Reason string `json:"reason"`

	// Matched is the triggering corpus entry when IsDuplicate is true,
	// nil otherwise
	Matched *Match `json:"matched,omitempty"`

	// Compared is the number of corpus entries actually scored
	Compared int `json:"compared"`

	// CandidateEmbedding is the candidate's freshly computed embedding, if
	// the semantic tier obtained one. The engine never persists it; the
	// caller may, so future checks skip the provider round trip.
	CandidateEmbedding []float32 `json:"-"`

	// BackfilledEmbeddings holds embeddings computed during this check for
	// corpus entries that lacked one, keyed by entry ID. Caller-persistable,
	// same as CandidateEmbedding.
	BackfilledEmbeddings map[string][]float32 `json:"-"`
}

// Validate checks if the verdict has consistent values
func (v *Verdict) Validate() error {
	if !v.Kind.IsValid() {
		return fmt.Errorf("invalid match kind: %s", v.Kind)
	}
	if v.Reason == "" {
		return fmt.Errorf("reason must always be set")
	}
	if v.IsDuplicate && v.Matched == nil {
		return fmt.Errorf("matched must be set when is_duplicate is true")
	}
	if !v.IsDuplicate && v.Matched != nil {
		return fmt.Errorf("matched should not be set when is_duplicate is false")
	}
	if v.IsDuplicate {
		switch v.Kind {
		case MatchNone, MatchSemanticUnavailable:
			return fmt.Errorf("kind %s is inconsistent with is_duplicate=true", v.Kind)
		}
	} else {
		switch v.Kind {
		case MatchNone, MatchSemanticUnavailable:
		default:
			return fmt.Errorf("kind %s is inconsistent with is_duplicate=false", v.Kind)
		}
	}
	if v.Compared < 0 {
		return fmt.Errorf("compared cannot be negative (got %d)", v.Compared)
	}
	return nil
}
