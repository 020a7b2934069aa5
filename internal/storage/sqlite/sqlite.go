package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/riskhound/riskhound/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db         *sql.DB
	riskPrefix string // Prefix for risk IDs (e.g., "rk-")
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Derive the risk prefix from the database filename
	// e.g., ".riskhound/rk.db" -> "rk-"
	filename := filepath.Base(path)
	prefix := strings.TrimSuffix(filename, filepath.Ext(filename))
	riskPrefix := prefix + "-"

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// The config table can override the filename-derived prefix, which lets
	// shared or imported registers keep their original IDs
	var configPrefix string
	err = db.QueryRow("SELECT value FROM config WHERE key = ?", "risk_prefix").Scan(&configPrefix)
	if err == nil && configPrefix != "" {
		riskPrefix = configPrefix + "-"
	} else if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read risk_prefix from config: %w", err)
	}

	return &SQLiteStorage{
		db:         db,
		riskPrefix: riskPrefix,
	}, nil
}

// CreateRisk creates a new risk, generating an ID when the caller did not
// supply one
func (s *SQLiteStorage) CreateRisk(ctx context.Context, risk *types.Risk, actor string) error {
	risk.Normalize()
	if err := risk.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	risk.CreatedAt = now
	risk.UpdatedAt = now

	// Acquire a dedicated connection for the transaction. We need raw
	// "BEGIN IMMEDIATE" / "COMMIT" statements on one connection, and the
	// database/sql pool would otherwise spread queries across connections.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// IMMEDIATE acquires the write lock up front, serializing ID generation
	// across concurrent writers. The sqlite3 driver's BeginTx always uses
	// DEFERRED mode, hence the raw Exec.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	// Use context.Background() for ROLLBACK so cleanup happens even if ctx
	// is canceled
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if risk.ID == "" {
		prefix := strings.TrimSuffix(s.riskPrefix, "-")

		// Atomically initialize the counter from existing IDs if needed and
		// claim the next number. Handles a missing counter, a counter that
		// lags behind imported rows, and the ordinary increment in one
		// statement.
		var nextID int
		err = conn.QueryRowContext(ctx, `
			INSERT INTO risk_counters (prefix, last_id)
			SELECT ?, COALESCE(MAX(CAST(substr(id, LENGTH(?) + 2) AS INTEGER)), 0) + 1
			FROM risks
			WHERE id LIKE ? || '-%'
			  AND substr(id, LENGTH(?) + 2) GLOB '[0-9]*'
			ON CONFLICT(prefix) DO UPDATE SET
				last_id = MAX(
					last_id,
					(SELECT COALESCE(MAX(CAST(substr(id, LENGTH(?) + 2) AS INTEGER)), 0)
					 FROM risks
					 WHERE id LIKE ? || '-%'
					   AND substr(id, LENGTH(?) + 2) GLOB '[0-9]*')
				) + 1
			RETURNING last_id
		`, prefix, prefix, prefix, prefix, prefix, prefix, prefix).Scan(&nextID)
		if err != nil {
			return fmt.Errorf("failed to generate next ID for prefix %s: %w", prefix, err)
		}

		risk.ID = fmt.Sprintf("%s-%d", prefix, nextID)
	}

	embedding, err := marshalEmbedding(risk.Embedding)
	if err != nil {
		return err
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO risks (
			id, title, description, impact, probability, severity, status,
			mitigation_plan, target_date, owner, embedding,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		risk.ID, risk.Title, risk.Description, risk.Impact, risk.Probability,
		risk.Severity, risk.Status, risk.MitigationPlan, risk.TargetDate,
		risk.Owner, embedding, risk.CreatedAt, risk.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert risk: %w", err)
	}

	// Record creation event
	eventData, _ := json.Marshal(risk)
	_, err = conn.ExecContext(ctx, `
		INSERT INTO events (risk_id, event_type, actor, new_value)
		VALUES (?, ?, ?, ?)
	`, risk.ID, types.EventCreated, actor, string(eventData))
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

const riskColumns = `id, title, description, impact, probability, severity, status,
       mitigation_plan, target_date, owner, embedding,
       created_at, updated_at, closed_at`

// GetRisk retrieves a risk by ID. Returns (nil, nil) when no risk exists.
func (s *SQLiteStorage) GetRisk(ctx context.Context, id string) (*types.Risk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+riskColumns+`
		FROM risks
		WHERE id = ?
	`, id)

	risk, err := scanRisk(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk: %w", err)
	}
	return risk, nil
}

// ListRisks returns risks matching the filter, most severe first
func (s *SQLiteStorage) ListRisks(ctx context.Context, filter types.RiskFilter) ([]*types.Risk, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Severity != "" {
		whereClauses = append(whereClauses, "severity = ?")
		args = append(args, filter.Severity)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	querySQL := fmt.Sprintf(`
		SELECT %s
		FROM risks
		%s
		ORDER BY (impact * probability) DESC, created_at DESC
		%s
	`, riskColumns, whereSQL, limitSQL)

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list risks: %w", err)
	}
	defer rows.Close()

	var risks []*types.Risk
	for rows.Next() {
		risk, err := scanRisk(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk: %w", err)
		}
		risks = append(risks, risk)
	}

	return risks, rows.Err()
}

// Allowed fields for update to prevent SQL injection
var allowedUpdateFields = map[string]bool{
	"title":           true,
	"description":     true,
	"impact":          true,
	"probability":     true,
	"status":          true,
	"mitigation_plan": true,
	"target_date":     true,
	"owner":           true,
}

// UpdateRisk updates fields on a risk and records the change in the audit
// trail. Severity is recomputed when impact or probability changes, and the
// cached embedding is invalidated when the description changes.
func (s *SQLiteStorage) UpdateRisk(ctx context.Context, id string, updates map[string]interface{}, actor string) error {
	oldRisk, err := s.GetRisk(ctx, id)
	if err != nil {
		return err
	}
	if oldRisk == nil {
		return fmt.Errorf("risk %s not found", id)
	}

	setClauses := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	impact := oldRisk.Impact
	probability := oldRisk.Probability

	for key, value := range updates {
		// Prevent SQL injection by validating field names
		if !allowedUpdateFields[key] {
			return fmt.Errorf("invalid field for update: %s", key)
		}

		switch key {
		case "title":
			if title, ok := value.(string); ok {
				if t := strings.TrimSpace(title); t == "" || len(t) > types.MaxTitleLength {
					return fmt.Errorf("title must be 1-%d characters", types.MaxTitleLength)
				}
			}
		case "description":
			if desc, ok := value.(string); ok {
				d := strings.TrimSpace(desc)
				if len(d) < types.MinDescriptionLength || len(d) > types.MaxDescriptionLength {
					return fmt.Errorf("description must be %d-%d characters",
						types.MinDescriptionLength, types.MaxDescriptionLength)
				}
			}
		case "impact":
			if v, ok := value.(int); ok {
				if v < 1 || v > 5 {
					return fmt.Errorf("impact must be between 1 and 5 (got %d)", v)
				}
				impact = v
			}
		case "probability":
			if v, ok := value.(int); ok {
				if v < 1 || v > 5 {
					return fmt.Errorf("probability must be between 1 and 5 (got %d)", v)
				}
				probability = v
			}
		case "status":
			if status, ok := value.(string); ok {
				if !types.Status(status).IsValid() {
					return fmt.Errorf("invalid status: %s", status)
				}
			}
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = ?", key))
		args = append(args, value)
	}

	if impact != oldRisk.Impact || probability != oldRisk.Probability {
		setClauses = append(setClauses, "severity = ?")
		args = append(args, types.DeriveSeverity(impact, probability))
	}

	// A changed description invalidates the cached embedding; the next
	// duplicate check recomputes it
	if _, ok := updates["description"]; ok {
		setClauses = append(setClauses, "embedding = NULL")
	}

	// Mitigated and accepted risks leave the active register
	if statusVal, ok := updates["status"]; ok {
		if statusVal != string(types.StatusOpen) {
			setClauses = append(setClauses, "closed_at = ?")
			args = append(args, time.Now())
		} else {
			setClauses = append(setClauses, "closed_at = NULL")
		}
	}

	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("UPDATE risks SET %s WHERE id = ?", strings.Join(setClauses, ", "))
	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update risk: %w", err)
	}

	// Record event
	oldData, _ := json.Marshal(oldRisk)
	newData, _ := json.Marshal(updates)

	eventType := types.EventUpdated
	if _, ok := updates["status"]; ok {
		eventType = types.EventStatusChanged
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (risk_id, event_type, actor, old_value, new_value)
		VALUES (?, ?, ?, ?, ?)
	`, id, eventType, actor, string(oldData), string(newData))
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

// SaveEmbedding caches a computed embedding for a risk. Embeddings are
// derived data, so this intentionally does not touch updated_at or the
// audit trail.
func (s *SQLiteStorage) SaveEmbedding(ctx context.Context, id string, embedding []float32) error {
	data, err := marshalEmbedding(embedding)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE risks SET embedding = ? WHERE id = ?`, data, id)
	if err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("risk %s not found", id)
	}
	return nil
}

// AddComment appends a comment to a risk's audit trail
func (s *SQLiteStorage) AddComment(ctx context.Context, riskID, actor, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return fmt.Errorf("comment cannot be empty")
	}

	risk, err := s.GetRisk(ctx, riskID)
	if err != nil {
		return err
	}
	if risk == nil {
		return fmt.Errorf("risk %s not found", riskID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (risk_id, event_type, actor, comment)
		VALUES (?, ?, ?, ?)
	`, riskID, types.EventCommented, actor, comment)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// GetEvents returns a risk's audit trail, newest first
func (s *SQLiteStorage) GetEvents(ctx context.Context, riskID string, limit int) ([]*types.Event, error) {
	limitSQL := ""
	if limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, risk_id, event_type, actor, old_value, new_value, comment, created_at
		FROM events
		WHERE risk_id = ?
		ORDER BY created_at DESC, id DESC
	`+limitSQL, riskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		var event types.Event
		var oldValue, newValue, comment sql.NullString

		err := rows.Scan(
			&event.ID, &event.RiskID, &event.EventType, &event.Actor,
			&oldValue, &newValue, &comment, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		if oldValue.Valid {
			event.OldValue = &oldValue.String
		}
		if newValue.Valid {
			event.NewValue = &newValue.String
		}
		if comment.Valid {
			event.Comment = &comment.String
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// GetConfig gets a configuration value from the config table
func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig sets a configuration value in the config table
func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Ping verifies the database connection is alive
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// scanRisk reads one risks row through the provided Scan function, shared
// between QueryRow and Rows iteration
func scanRisk(scan func(dest ...interface{}) error) (*types.Risk, error) {
	var risk types.Risk
	var targetDate, closedAt sql.NullTime
	var embedding sql.NullString

	err := scan(
		&risk.ID, &risk.Title, &risk.Description, &risk.Impact,
		&risk.Probability, &risk.Severity, &risk.Status,
		&risk.MitigationPlan, &targetDate, &risk.Owner, &embedding,
		&risk.CreatedAt, &risk.UpdatedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	if targetDate.Valid {
		risk.TargetDate = &targetDate.Time
	}
	if closedAt.Valid {
		risk.ClosedAt = &closedAt.Time
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &risk.Embedding); err != nil {
			// A corrupt cached vector is recoverable; treat it as absent
			risk.Embedding = nil
		}
	}

	return &risk, nil
}

// marshalEmbedding serializes an embedding as JSON for the TEXT column.
// A nil or empty vector maps to SQL NULL.
func marshalEmbedding(embedding []float32) (interface{}, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return string(data), nil
}
