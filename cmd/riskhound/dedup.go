package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/riskhound/riskhound/internal/deduplication"
	"github.com/riskhound/riskhound/internal/types"
)

// runDuplicateCheck screens a candidate description against all open risks
// and persists any embeddings computed along the way, so the next check
// skips those provider round trips.
func runDuplicateCheck(ctx context.Context, engine *deduplication.Engine, description string) (*deduplication.Verdict, error) {
	checkID := uuid.NewString()[:8]

	risks, err := store.ListRisks(ctx, types.RiskFilter{Status: types.StatusOpen})
	if err != nil {
		return nil, fmt.Errorf("failed to load open risks: %w", err)
	}

	corpus := make([]deduplication.Descriptor, 0, len(risks))
	for _, risk := range risks {
		corpus = append(corpus, deduplication.Descriptor{
			ID:          risk.ID,
			Description: risk.Description,
			Embedding:   risk.Embedding,
		})
	}

	verdict, err := engine.CheckDuplicate(ctx, description, corpus)
	if err != nil {
		return nil, err
	}
	log.Printf("[CLI] check %s: compared %d risks, kind=%s", checkID, verdict.Compared, verdict.Kind)

	// Cache freshly computed corpus embeddings. Best effort: a failed save
	// only costs a recomputation next time.
	for id, vec := range verdict.BackfilledEmbeddings {
		if err := store.SaveEmbedding(ctx, id, vec); err != nil {
			log.Printf("[CLI] check %s: failed to cache embedding for %s: %v", checkID, id, err)
		}
	}

	return verdict, nil
}
