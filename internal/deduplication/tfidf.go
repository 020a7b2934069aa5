package deduplication

import (
	"math"
	"strings"
	"unicode"
)

// corpusIndex is a term-frequency/inverse-document-frequency model built
// over one corpus snapshot. It is rebuilt fresh per duplicate check and
// never shared across calls, so a changing corpus can never leak stale
// statistics into a concurrent check.
type corpusIndex struct {
	docs []map[string]int // per-document term counts, in corpus order
	df   map[string]int   // number of documents containing each term
}

// tokenize lower-cases text and splits it into letter/digit word tokens
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// buildIndex tokenizes every corpus description and accumulates term and
// document frequencies
func buildIndex(corpus []Descriptor) *corpusIndex {
	ix := &corpusIndex{
		docs: make([]map[string]int, len(corpus)),
		df:   make(map[string]int),
	}

	for i, entry := range corpus {
		counts := make(map[string]int)
		for _, tok := range tokenize(entry.Description) {
			counts[tok]++
		}
		ix.docs[i] = counts
		for tok := range counts {
			ix.df[tok]++
		}
	}

	return ix
}

// score computes the TF-IDF relevance of the candidate tokens against one
// document: sum over candidate tokens (with multiplicity) of
// tf(token, doc) * (1 + ln(N / (1 + df(token)))).
func (ix *corpusIndex) score(candidateTokens []string, doc int) float64 {
	counts := ix.docs[doc]
	n := float64(len(ix.docs))

	var total float64
	for _, tok := range candidateTokens {
		tf := counts[tok]
		if tf == 0 {
			continue
		}
		idf := 1 + math.Log(n/float64(1+ix.df[tok]))
		total += float64(tf) * idf
	}
	return total
}

// ScoreAgainstCorpus tokenizes the candidate and scores it against every
// corpus document, returning the best-scoring document's ID and score.
//
// An empty corpus (or a candidate sharing no vocabulary with any document)
// yields ("", 0). Ties keep the earliest corpus entry. Scores are
// unbounded and grow with corpus size; thresholding is the caller's job.
func ScoreAgainstCorpus(candidate string, corpus []Descriptor) (bestID string, best float64) {
	if len(corpus) == 0 {
		return "", 0
	}

	ix := buildIndex(corpus)
	candidateTokens := tokenize(candidate)

	bestIdx := -1
	for i := range corpus {
		if s := ix.score(candidateTokens, i); s > best {
			best = s
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return "", 0
	}
	return corpus[bestIdx].ID, best
}
