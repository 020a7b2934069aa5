package deduplication

import "math"

// Cosine computes the cosine similarity between two vectors, a value in
// [-1, 1] where 1 means identical direction.
//
// Degenerate inputs (nil vectors, mismatched lengths, zero magnitude)
// yield 0 rather than an error: "no similarity" is the correct semantics
// for an incomparable pair, and it keeps one bad cached embedding from
// failing a whole check.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
