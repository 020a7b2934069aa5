package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskhound/riskhound/internal/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "rk.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRisk(title, description string) *types.Risk {
	return &types.Risk{
		Title:       title,
		Description: description,
		Impact:      3,
		Probability: 3,
		Status:      types.StatusOpen,
	}
}

func TestNewDerivesPrefixFromFilename(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "acme.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	risk := testRisk("Vendor lock-in", "Single vendor controls critical infrastructure")
	if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}

	if !strings.HasPrefix(risk.ID, "acme-") {
		t.Errorf("expected acme- prefix, got %s", risk.ID)
	}
}

func TestConfigPrefixOverridesFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rk.db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	ctx := context.Background()
	if err := store.SetConfig(ctx, "risk_prefix", "legacy"); err != nil {
		t.Fatalf("failed to set config: %v", err)
	}
	store.Close()

	// Reopen: config table prefix takes precedence
	store, err = New(path)
	if err != nil {
		t.Fatalf("failed to reopen storage: %v", err)
	}
	defer store.Close()

	risk := testRisk("Imported risk", "Risk imported from the legacy register")
	if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}
	if !strings.HasPrefix(risk.ID, "legacy-") {
		t.Errorf("expected legacy- prefix, got %s", risk.ID)
	}
}

func TestCreateRiskGeneratesSequentialIDs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		risk := testRisk(fmt.Sprintf("Risk %d", i), fmt.Sprintf("Description for risk number %d", i))
		if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
			t.Fatalf("failed to create risk %d: %v", i, err)
		}
		want := fmt.Sprintf("rk-%d", i)
		if risk.ID != want {
			t.Errorf("expected ID %s, got %s", want, risk.ID)
		}
	}
}

func TestCreateRiskConcurrent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	const workers = 10
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			risk := testRisk(fmt.Sprintf("Concurrent %d", i), fmt.Sprintf("Concurrently created risk number %d", i))
			errs[i] = store.CreateRisk(ctx, risk, "tester")
			ids[i] = risk.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if seen[ids[i]] {
			t.Errorf("duplicate ID generated: %s", ids[i])
		}
		seen[ids[i]] = true
	}
}

func TestCreateRiskValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		risk     *types.Risk
		errorMsg string
	}{
		{
			name:     "missing title",
			risk:     &types.Risk{Description: "A valid description here", Impact: 3, Probability: 3},
			errorMsg: "title is required",
		},
		{
			name:     "description too short",
			risk:     &types.Risk{Title: "Short", Description: "tiny", Impact: 3, Probability: 3},
			errorMsg: "description must be at least",
		},
		{
			name:     "impact out of range",
			risk:     &types.Risk{Title: "Bad impact", Description: "A valid description here", Impact: 6, Probability: 3},
			errorMsg: "impact must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.CreateRisk(ctx, tt.risk, "tester")
			if err == nil {
				t.Fatal("expected validation error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got: %v", tt.errorMsg, err)
			}
		})
	}
}

func TestCreateRiskDerivesSeverity(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	risk := testRisk("Severity check", "Impact five probability five is critical")
	risk.Impact = 5
	risk.Probability = 5
	if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}

	got, err := store.GetRisk(ctx, risk.ID)
	if err != nil {
		t.Fatalf("failed to get risk: %v", err)
	}
	if got.Severity != types.SeverityCritical {
		t.Errorf("expected critical severity, got %s", got.Severity)
	}
}

func TestGetRiskNotFound(t *testing.T) {
	store := newTestStorage(t)

	risk, err := store.GetRisk(context.Background(), "rk-999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if risk != nil {
		t.Errorf("expected nil for missing risk, got %+v", risk)
	}
}

func TestGetRiskRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	target := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	risk := &types.Risk{
		Title:          "Data center flood",
		Description:    "Risk of flood damage to the primary data center",
		Impact:         4,
		Probability:    2,
		Status:         types.StatusOpen,
		MitigationPlan: "Relocate critical racks above ground level",
		TargetDate:     &target,
		Owner:          "facilities",
		Embedding:      []float32{0.25, -0.5, 0.75},
	}
	if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}

	got, err := store.GetRisk(ctx, risk.ID)
	if err != nil {
		t.Fatalf("failed to get risk: %v", err)
	}
	if got == nil {
		t.Fatal("expected risk, got nil")
	}

	if got.Title != risk.Title || got.Description != risk.Description {
		t.Errorf("text fields did not round-trip: %+v", got)
	}
	if got.Impact != 4 || got.Probability != 2 {
		t.Errorf("expected impact 4 probability 2, got %d/%d", got.Impact, got.Probability)
	}
	if got.Severity != types.SeverityMedium {
		t.Errorf("expected medium severity for score 8, got %s", got.Severity)
	}
	if got.MitigationPlan != risk.MitigationPlan || got.Owner != risk.Owner {
		t.Errorf("mitigation/owner did not round-trip: %+v", got)
	}
	if got.TargetDate == nil || !got.TargetDate.Equal(target) {
		t.Errorf("expected target date %v, got %v", target, got.TargetDate)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.25 {
		t.Errorf("embedding did not round-trip: %v", got.Embedding)
	}
	if got.ClosedAt != nil {
		t.Errorf("expected nil closed_at for open risk, got %v", got.ClosedAt)
	}
}

func TestListRisks(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	seed := []struct {
		title       string
		impact      int
		probability int
		status      types.Status
	}{
		{"Low severity risk", 1, 2, types.StatusOpen},
		{"Critical severity risk", 5, 5, types.StatusOpen},
		{"Mitigated risk", 4, 4, types.StatusMitigated},
	}
	for _, s := range seed {
		risk := testRisk(s.title, "Description for "+strings.ToLower(s.title))
		risk.Impact = s.impact
		risk.Probability = s.probability
		risk.Status = s.status
		if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
			t.Fatalf("failed to seed risk: %v", err)
		}
	}

	t.Run("all risks ordered by score", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, types.RiskFilter{})
		if err != nil {
			t.Fatalf("failed to list risks: %v", err)
		}
		if len(risks) != 3 {
			t.Fatalf("expected 3 risks, got %d", len(risks))
		}
		if risks[0].Title != "Critical severity risk" {
			t.Errorf("expected highest score first, got %s", risks[0].Title)
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, types.RiskFilter{Status: types.StatusOpen})
		if err != nil {
			t.Fatalf("failed to list risks: %v", err)
		}
		if len(risks) != 2 {
			t.Errorf("expected 2 open risks, got %d", len(risks))
		}
	})

	t.Run("filter by severity", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, types.RiskFilter{Severity: types.SeverityCritical})
		if err != nil {
			t.Fatalf("failed to list risks: %v", err)
		}
		if len(risks) != 1 || risks[0].Title != "Critical severity risk" {
			t.Errorf("expected one critical risk, got %d", len(risks))
		}
	})

	t.Run("limit", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, types.RiskFilter{Limit: 1})
		if err != nil {
			t.Fatalf("failed to list risks: %v", err)
		}
		if len(risks) != 1 {
			t.Errorf("expected 1 risk with limit, got %d", len(risks))
		}
	})
}

func TestUpdateRisk(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	risk := testRisk("Original title", "The original description of this risk")
	risk.Embedding = []float32{1, 2, 3}
	if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}

	t.Run("severity recomputed on impact change", func(t *testing.T) {
		if err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"impact": 5, "probability": 5}, "tester"); err != nil {
			t.Fatalf("failed to update risk: %v", err)
		}
		got, _ := store.GetRisk(ctx, risk.ID)
		if got.Severity != types.SeverityCritical {
			t.Errorf("expected severity recomputed to critical, got %s", got.Severity)
		}
	})

	t.Run("description change invalidates embedding", func(t *testing.T) {
		got, _ := store.GetRisk(ctx, risk.ID)
		if len(got.Embedding) == 0 {
			t.Fatal("precondition failed: expected cached embedding")
		}
		if err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"description": "A completely rewritten description"}, "tester"); err != nil {
			t.Fatalf("failed to update risk: %v", err)
		}
		got, _ = store.GetRisk(ctx, risk.ID)
		if got.Embedding != nil {
			t.Errorf("expected embedding cleared after description change, got %v", got.Embedding)
		}
	})

	t.Run("status change sets closed_at", func(t *testing.T) {
		if err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"status": string(types.StatusMitigated)}, "tester"); err != nil {
			t.Fatalf("failed to update risk: %v", err)
		}
		got, _ := store.GetRisk(ctx, risk.ID)
		if got.Status != types.StatusMitigated {
			t.Errorf("expected mitigated status, got %s", got.Status)
		}
		if got.ClosedAt == nil {
			t.Error("expected closed_at set for mitigated risk")
		}

		// Reopening clears it
		if err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"status": string(types.StatusOpen)}, "tester"); err != nil {
			t.Fatalf("failed to reopen risk: %v", err)
		}
		got, _ = store.GetRisk(ctx, risk.ID)
		if got.ClosedAt != nil {
			t.Errorf("expected closed_at cleared on reopen, got %v", got.ClosedAt)
		}
	})

	t.Run("rejects unknown field", func(t *testing.T) {
		err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"id": "rk-666"}, "tester")
		if err == nil || !strings.Contains(err.Error(), "invalid field") {
			t.Errorf("expected invalid field error, got: %v", err)
		}
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"status": "sideways"}, "tester")
		if err == nil || !strings.Contains(err.Error(), "invalid status") {
			t.Errorf("expected invalid status error, got: %v", err)
		}
	})

	t.Run("missing risk", func(t *testing.T) {
		err := store.UpdateRisk(ctx, "rk-999", map[string]interface{}{"impact": 2}, "tester")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got: %v", err)
		}
	})
}

func TestSaveEmbedding(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	risk := testRisk("Embedding test", "A risk that will receive a cached embedding")
	if err := store.CreateRisk(ctx, risk, "tester"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}

	vec := []float32{0.1, 0.2, 0.3}
	if err := store.SaveEmbedding(ctx, risk.ID, vec); err != nil {
		t.Fatalf("failed to save embedding: %v", err)
	}

	got, err := store.GetRisk(ctx, risk.ID)
	if err != nil {
		t.Fatalf("failed to get risk: %v", err)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != 0.2 {
		t.Errorf("embedding did not round-trip: %v", got.Embedding)
	}

	// Saving an embedding never touches the audit trail
	events, err := store.GetEvents(ctx, risk.ID, 0)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected only the creation event, got %d events", len(events))
	}

	if err := store.SaveEmbedding(ctx, "rk-999", vec); err == nil {
		t.Error("expected not found error for missing risk")
	}
}

func TestEvents(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	risk := testRisk("Audited risk", "A risk whose audit trail we inspect")
	if err := store.CreateRisk(ctx, risk, "alice"); err != nil {
		t.Fatalf("failed to create risk: %v", err)
	}
	if err := store.AddComment(ctx, risk.ID, "bob", "reviewed in the weekly sync"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if err := store.UpdateRisk(ctx, risk.ID, map[string]interface{}{"status": string(types.StatusAccepted)}, "carol"); err != nil {
		t.Fatalf("failed to update risk: %v", err)
	}

	events, err := store.GetEvents(ctx, risk.ID, 0)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	// Newest first
	if events[0].EventType != types.EventStatusChanged || events[0].Actor != "carol" {
		t.Errorf("expected status_changed by carol first, got %s by %s", events[0].EventType, events[0].Actor)
	}
	if events[1].EventType != types.EventCommented || events[1].Comment == nil {
		t.Errorf("expected comment event second, got %+v", events[1])
	}
	if events[2].EventType != types.EventCreated {
		t.Errorf("expected created event last, got %s", events[2].EventType)
	}

	limited, err := store.GetEvents(ctx, risk.ID, 1)
	if err != nil {
		t.Fatalf("failed to get limited events: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 event with limit, got %d", len(limited))
	}

	if err := store.AddComment(ctx, "rk-999", "bob", "comment on nothing"); err == nil {
		t.Error("expected not found error for missing risk")
	}
	if err := store.AddComment(ctx, risk.ID, "bob", "  "); err == nil {
		t.Error("expected error for empty comment")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	value, err := store.GetConfig(ctx, "missing_key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value for missing key, got %q", value)
	}

	if err := store.SetConfig(ctx, "embedding_model", "nomic-embed-text"); err != nil {
		t.Fatalf("failed to set config: %v", err)
	}
	value, err = store.GetConfig(ctx, "embedding_model")
	if err != nil {
		t.Fatalf("failed to get config: %v", err)
	}
	if value != "nomic-embed-text" {
		t.Errorf("expected nomic-embed-text, got %q", value)
	}

	// Upsert
	if err := store.SetConfig(ctx, "embedding_model", "all-minilm"); err != nil {
		t.Fatalf("failed to overwrite config: %v", err)
	}
	value, _ = store.GetConfig(ctx, "embedding_model")
	if value != "all-minilm" {
		t.Errorf("expected all-minilm after overwrite, got %q", value)
	}
}
