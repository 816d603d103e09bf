package insights

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository defines storage operations for AI insights.
type Repository interface {
	Insert(ctx context.Context, insight *Insight) error
	ListActive(ctx context.Context) ([]Insight, error)
	DeactivateAll(ctx context.Context) error
}

// SQLiteRepository stores insights in SQLite. Recommendations are kept
// as a JSON array in a text column.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new insight repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert stores an insight. CreatedAt is assigned if zero.
func (r *SQLiteRepository) Insert(ctx context.Context, insight *Insight) error {
	if insight.CreatedAt.IsZero() {
		insight.CreatedAt = time.Now().UTC()
	}

	recommendations, err := json.Marshal(insight.Recommendations)
	if err != nil {
		return fmt.Errorf("encoding recommendations: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ai_insights (id, insight_type, title, description, severity,
		 recommendations, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		insight.ID, insight.Type, insight.Title, insight.Description, insight.Severity,
		string(recommendations), insight.IsActive, insight.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting insight: %w", err)
	}

	return nil
}

// ListActive returns insights from the latest analysis run, newest first.
func (r *SQLiteRepository) ListActive(ctx context.Context) ([]Insight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, insight_type, title, description, severity, recommendations, is_active, created_at
		 FROM ai_insights WHERE is_active = 1 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying insights: %w", err)
	}
	defer rows.Close()

	var insights []Insight
	for rows.Next() {
		var insight Insight
		var recommendations, createdAt string

		err := rows.Scan(&insight.ID, &insight.Type, &insight.Title, &insight.Description,
			&insight.Severity, &recommendations, &insight.IsActive, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning insight: %w", err)
		}

		if err := json.Unmarshal([]byte(recommendations), &insight.Recommendations); err != nil {
			return nil, fmt.Errorf("decoding recommendations for insight %s: %w", insight.ID, err)
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing insight timestamp %q: %w", createdAt, err)
		}
		insight.CreatedAt = t

		insights = append(insights, insight)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating insights: %w", err)
	}

	if insights == nil {
		insights = []Insight{}
	}
	return insights, nil
}

// DeactivateAll retires every active insight. Called at the start of a
// new analysis run so only the latest findings stay visible.
func (r *SQLiteRepository) DeactivateAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE ai_insights SET is_active = 0 WHERE is_active = 1",
	); err != nil {
		return fmt.Errorf("deactivating insights: %w", err)
	}
	return nil
}
