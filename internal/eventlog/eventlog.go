// Package eventlog provides access to the event_logs table recording
// pipeline activity: readings received, validation failures, database
// errors, relay commands, and controller pings.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Event types written by the pipeline. Free-form types are allowed but
// these cover the ingest and control paths.
const (
	TypeReadingReceived     = "reading_received"
	TypeRelayStatusReceived = "relay_status_received"
	TypeValidationError     = "validation_error"
	TypeDatabaseError       = "database_error"
	TypeRelayCommand        = "relay_command"
	TypeRelayConfig         = "relay_config"
	TypeMQTTPing            = "mqtt_ping"
	TypeInsightGenerated    = "insight_generated"
)

// Entry represents a single event log row.
type Entry struct {
	ID        int64     `json:"id"`
	Type      string    `json:"event_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter controls which event log entries to return.
type Filter struct {
	Type   string // optional: filter by event type
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// ListResult contains the paginated event log results.
type ListResult struct {
	Events []Entry `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository defines the interface for event log operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores event logs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new event log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new event log entry. The Timestamp is generated if
// zero and the assigned row ID is written back to the entry.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO event_logs (event_type, message, timestamp) VALUES (?, ?, ?)`,
		entry.Type, entry.Message, entry.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event log id: %w", err)
	}
	entry.ID = id

	return nil
}

// List returns event log entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for event log queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.Type)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// WHERE clause is built from parameterised conditions (? placeholders) — no user input in SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM event_logs %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting event logs: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, event_type, message, timestamp FROM event_logs %s ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying event logs: %w", err)
	}
	defer rows.Close()

	var events []Entry
	for rows.Next() {
		var entry Entry
		var timestamp string

		if err := rows.Scan(&entry.ID, &entry.Type, &entry.Message, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning event log: %w", err)
		}

		t, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing event log timestamp %q: %w", timestamp, err)
		}
		entry.Timestamp = t

		events = append(events, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event logs: %w", err)
	}

	if events == nil {
		events = []Entry{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
