package types

import (
	"fmt"
	"strings"
	"time"
)

// Risk represents a single entry in the risk register.
type Risk struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Impact         int        `json:"impact"`      // 1-5
	Probability    int        `json:"probability"` // 1-5
	Severity       Severity   `json:"severity"`    // derived from impact * probability
	Status         Status     `json:"status"`
	MitigationPlan string     `json:"mitigation_plan,omitempty"`
	TargetDate     *time.Time `json:"target_date,omitempty"`
	Owner          string     `json:"owner,omitempty"`

	// Embedding is the cached semantic vector for Description, if one has
	// been computed. It is a derived value: safe to drop, recomputed on the
	// next duplicate check that needs it.
	Embedding []float32 `json:"embedding,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

const (
	// MaxTitleLength is the maximum allowed title length
	MaxTitleLength = 100

	// MinDescriptionLength is the minimum allowed description length
	MinDescriptionLength = 10

	// MaxDescriptionLength is the maximum allowed description length
	MaxDescriptionLength = 500
)

// Validate checks if the risk has valid field values
func (r *Risk) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("title must be %d characters or less (got %d)", MaxTitleLength, len(title))
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return fmt.Errorf("description is required")
	}
	if len(desc) < MinDescriptionLength {
		return fmt.Errorf("description must be at least %d characters (got %d)", MinDescriptionLength, len(desc))
	}
	if len(desc) > MaxDescriptionLength {
		return fmt.Errorf("description must be %d characters or less (got %d)", MaxDescriptionLength, len(desc))
	}
	if r.Impact < 1 || r.Impact > 5 {
		return fmt.Errorf("impact must be between 1 and 5 (got %d)", r.Impact)
	}
	if r.Probability < 1 || r.Probability > 5 {
		return fmt.Errorf("probability must be between 1 and 5 (got %d)", r.Probability)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", r.Severity)
	}
	if r.TargetDate != nil && !r.TargetDate.After(time.Now()) {
		return fmt.Errorf("target_date must be in the future (got %s)", r.TargetDate.Format("2006-01-02"))
	}
	return nil
}

// Normalize trims text fields and recomputes the derived severity.
// Call before Validate when constructing or updating a risk.
func (r *Risk) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.MitigationPlan = strings.TrimSpace(r.MitigationPlan)
	if r.Status == "" {
		r.Status = StatusOpen
	}
	r.Severity = DeriveSeverity(r.Impact, r.Probability)
}

// DeriveSeverity maps a risk score (impact * probability, both 1-5) onto
// a severity band.
func DeriveSeverity(impact, probability int) Severity {
	score := impact * probability
	switch {
	case score <= 4:
		return SeverityLow
	case score <= 10:
		return SeverityMedium
	case score <= 20:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Status represents the lifecycle state of a risk
type Status string

const (
	StatusOpen      Status = "open"
	StatusMitigated Status = "mitigated"
	StatusAccepted  Status = "accepted"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusMitigated, StatusAccepted:
		return true
	}
	return false
}

// Severity bands a risk by its impact * probability score
type Severity string

const (
	SeverityLow      Severity = "low"      // score <= 4
	SeverityMedium   Severity = "medium"   // score <= 10
	SeverityHigh     Severity = "high"     // score <= 20
	SeverityCritical Severity = "critical" // score > 20
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// RiskFilter narrows ListRisks queries
type RiskFilter struct {
	Status   Status // empty = all statuses
	Severity Severity
	Limit    int // 0 = no limit
}

// Event represents an audit trail entry for a risk
type Event struct {
	ID        int64     `json:"id"`
	RiskID    string    `json:"risk_id"`
	EventType EventType `json:"event_type"`
	Actor     string    `json:"actor"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType categorizes audit trail events
type EventType string

const (
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
	EventStatusChanged EventType = "status_changed"
	EventCommented     EventType = "commented"
)
