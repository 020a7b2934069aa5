package types

import (
	"strings"
	"testing"
	"time"
)

func validRisk() *Risk {
	return &Risk{
		Title:       "Data center flood",
		Description: "Risk of flood damage to the primary data center",
		Impact:      4,
		Probability: 2,
		Severity:    SeverityMedium,
		Status:      StatusOpen,
	}
}

func TestRiskValidate(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name        string
		mutate      func(*Risk)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid risk",
			mutate: func(r *Risk) {},
		},
		{
			name:        "missing title",
			mutate:      func(r *Risk) { r.Title = "   " },
			expectError: true,
			errorMsg:    "title is required",
		},
		{
			name:        "title too long",
			mutate:      func(r *Risk) { r.Title = strings.Repeat("x", 101) },
			expectError: true,
			errorMsg:    "title must be 100 characters or less",
		},
		{
			name:        "missing description",
			mutate:      func(r *Risk) { r.Description = "" },
			expectError: true,
			errorMsg:    "description is required",
		},
		{
			name:        "description too short",
			mutate:      func(r *Risk) { r.Description = "too short" },
			expectError: true,
			errorMsg:    "at least 10 characters",
		},
		{
			name:        "description too long",
			mutate:      func(r *Risk) { r.Description = strings.Repeat("x", 501) },
			expectError: true,
			errorMsg:    "500 characters or less",
		},
		{
			name:        "impact too low",
			mutate:      func(r *Risk) { r.Impact = 0 },
			expectError: true,
			errorMsg:    "impact must be between 1 and 5",
		},
		{
			name:        "impact too high",
			mutate:      func(r *Risk) { r.Impact = 6 },
			expectError: true,
			errorMsg:    "impact must be between 1 and 5",
		},
		{
			name:        "probability out of range",
			mutate:      func(r *Risk) { r.Probability = 9 },
			expectError: true,
			errorMsg:    "probability must be between 1 and 5",
		},
		{
			name:        "invalid status",
			mutate:      func(r *Risk) { r.Status = "retired" },
			expectError: true,
			errorMsg:    "invalid status",
		},
		{
			name:        "target date in the past",
			mutate:      func(r *Risk) { r.TargetDate = &past },
			expectError: true,
			errorMsg:    "target_date must be in the future",
		},
		{
			name:   "target date in the future",
			mutate: func(r *Risk) { r.TargetDate = &future },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRisk()
			tt.mutate(r)
			err := r.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error containing '%s', got nil", tt.errorMsg)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDeriveSeverity(t *testing.T) {
	tests := []struct {
		impact, probability int
		want                Severity
	}{
		{1, 1, SeverityLow},
		{2, 2, SeverityLow},
		{1, 4, SeverityLow},
		{1, 5, SeverityMedium},
		{2, 5, SeverityMedium},
		{3, 3, SeverityMedium},
		{3, 4, SeverityHigh},
		{4, 5, SeverityHigh},
		{5, 4, SeverityHigh},
		{5, 5, SeverityCritical},
	}

	for _, tt := range tests {
		got := DeriveSeverity(tt.impact, tt.probability)
		if got != tt.want {
			t.Errorf("DeriveSeverity(%d, %d) = %s, want %s", tt.impact, tt.probability, got, tt.want)
		}
	}
}

func TestNormalizeDerivesSeverity(t *testing.T) {
	r := validRisk()
	r.Impact = 5
	r.Probability = 5
	r.Severity = SeverityLow // stale
	r.Normalize()
	if r.Severity != SeverityCritical {
		t.Errorf("expected severity recomputed to critical, got %s", r.Severity)
	}
	if r.Status != StatusOpen {
		t.Errorf("expected default status open, got %s", r.Status)
	}
}
