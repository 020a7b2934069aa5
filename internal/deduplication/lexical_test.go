package deduplication

import "testing"

func TestMatchLexicalExact(t *testing.T) {
	corpus := []Descriptor{
		{ID: "rk-1", Description: "Server outage due to power failure"},
		{ID: "rk-2", Description: "Unauthorized access to customer database"},
	}

	result := MatchLexical("  Server outage due to power failure  ", corpus)
	if result.ExactID != "rk-1" {
		t.Errorf("expected exact match rk-1, got %q", result.ExactID)
	}
	if result.Best == nil || result.Best.ID != "rk-1" {
		t.Errorf("expected best entry rk-1, got %+v", result.Best)
	}
	if result.Best.Score != 1 {
		t.Errorf("expected ratio 1.0 for identical strings, got %v", result.Best.Score)
	}
}

func TestMatchLexicalFuzzy(t *testing.T) {
	corpus := []Descriptor{
		{ID: "rk-1", Description: "Server outage due to power failure"},
		{ID: "rk-2", Description: "Unauthorized access to customer database"},
	}

	// British spelling plus an extra article: no exact hit, but a ratio
	// well above 0.85
	result := MatchLexical("Unauthorised access to the customer database", corpus)
	if result.ExactID != "" {
		t.Errorf("expected no exact match, got %q", result.ExactID)
	}
	if result.Best == nil {
		t.Fatal("expected a best match")
	}
	if result.Best.ID != "rk-2" {
		t.Errorf("expected best entry rk-2, got %s", result.Best.ID)
	}
	if result.Best.Score <= 0.85 || result.Best.Score >= 1 {
		t.Errorf("expected ratio in (0.85, 1), got %v", result.Best.Score)
	}
}

func TestMatchLexicalEmptyCorpus(t *testing.T) {
	result := MatchLexical("Anything at all", nil)
	if result.ExactID != "" || result.Best != nil {
		t.Errorf("expected empty result for empty corpus, got %+v", result)
	}
}

func TestMatchLexicalSkipsBlankEntries(t *testing.T) {
	corpus := []Descriptor{
		{ID: "rk-1", Description: "   "},
		{ID: "rk-2", Description: "Vendor contract expires without renewal"},
	}

	result := MatchLexical("Vendor contract expires without renewal", corpus)
	if result.ExactID != "rk-2" {
		t.Errorf("expected exact match rk-2, got %q", result.ExactID)
	}
}

func TestMatchLexicalDeterministicTieBreak(t *testing.T) {
	corpus := []Descriptor{
		{ID: "rk-1", Description: "Ransomware attack on file servers"},
		{ID: "rk-2", Description: "Ransomware attack on file servers"},
	}

	for i := 0; i < 5; i++ {
		result := MatchLexical("Ransomware attack on file servers", corpus)
		if result.ExactID != "rk-1" {
			t.Fatalf("expected first entry to win the tie, got %q", result.ExactID)
		}
		if result.Best.ID != "rk-1" {
			t.Fatalf("expected first entry as best, got %s", result.Best.ID)
		}
	}
}
