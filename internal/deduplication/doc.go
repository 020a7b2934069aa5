// Package deduplication decides whether a newly submitted risk description
// duplicates an existing entry in the register.
//
// # Overview
//
// The engine layers four similarity tiers over one corpus snapshot:
//
//  1. Exact: trimmed verbatim string equality. Short-circuits everything.
//  2. Lexical: bigram Sorensen-Dice fuzzy ratio (threshold 0.85).
//  3. Statistical: TF-IDF relevance over tokenized descriptions,
//     rebuilt per call (threshold 2.5).
//  4. Semantic: embedding-vector cosine similarity via an injected
//     provider client (threshold 0.8).
//
// Each tier runs only if no earlier tier already declared a duplicate.
// The semantic tier is the only one with network I/O and the only one
// allowed to fail: a provider outage degrades the verdict to
// MatchSemanticUnavailable with an explicit reason, never an error.
//
// # Usage
//
//	engine, err := deduplication.NewEngine(embedder, deduplication.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
//	verdict, err := engine.CheckDuplicate(ctx, candidateDescription, corpus)
//	if err != nil {
//	    return err // only invalid candidate input reaches here
//	}
//	if verdict.IsDuplicate {
//	    fmt.Printf("duplicate of %s: %s\n", verdict.Matched.ID, verdict.Reason)
//	}
//
// Pass a nil embedder (or set Config.DisableSemantic) to run the engine
// fully offline on the exact, lexical, and statistical tiers.
//
// # Ownership
//
// The engine owns no state between calls. The corpus snapshot is
// read-only; freshly computed embeddings are handed back on the Verdict
// (CandidateEmbedding, BackfilledEmbeddings) for the caller's storage
// layer to persist if it wants to avoid recomputation.
//
// # Concurrency
//
// Embedding backfill for corpus entries without a cached vector fans out
// concurrently, bounded by Config.MaxConcurrentEmbeds, with a per-request
// timeout. One slow or failing entry degrades only its own comparison.
//
// # Thresholds
//
// The three thresholds were tuned independently and never reconciled
// against a shared labeled dataset. All are configuration
// (see Config and ConfigFromEnv); the defaults are reference values,
// not ground truth.
package deduplication
