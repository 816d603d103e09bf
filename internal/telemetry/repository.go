package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReadingRepository defines storage operations for sensor readings.
type ReadingRepository interface {
	Insert(ctx context.Context, reading *Reading) error
	Latest(ctx context.Context) (*Reading, error)
	List(ctx context.Context, filter ReadingFilter) ([]Reading, error)
	Range(ctx context.Context, start, end time.Time) ([]Reading, error)
	LastN(ctx context.Context, n int) ([]Reading, error)
}

// RelayStatusRepository defines storage operations for relay snapshots.
type RelayStatusRepository interface {
	Insert(ctx context.Context, status *RelayStatus) error
	Latest(ctx context.Context) (*RelayStatus, error)
}

// ReadingFilter controls which readings List returns.
type ReadingFilter struct {
	Limit int       // default 50, max 500
	Since time.Time // optional: only readings at or after this time
}

// SQLiteReadingRepository stores readings in SQLite.
type SQLiteReadingRepository struct {
	db *sql.DB
}

// NewSQLiteReadingRepository creates a new reading repository.
func NewSQLiteReadingRepository(db *sql.DB) *SQLiteReadingRepository {
	return &SQLiteReadingRepository{db: db}
}

const readingColumns = "id, timestamp, air_temp, humidity, ph, water_temp, ec"

// Insert stores a new reading. The timestamp is assigned if zero and
// the row ID is written back.
func (r *SQLiteReadingRepository) Insert(ctx context.Context, reading *Reading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (timestamp, air_temp, humidity, ph, water_temp, ec)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reading.Timestamp.Format(time.RFC3339),
		reading.AirTemp, reading.Humidity, reading.PH, reading.WaterTemp, reading.EC,
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	reading.ID = id

	return nil
}

// Latest returns the most recent reading, or ErrNotFound if the table
// is empty.
func (r *SQLiteReadingRepository) Latest(ctx context.Context) (*Reading, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM readings ORDER BY timestamp DESC, id DESC LIMIT 1", readingColumns),
	)

	reading, err := scanReading(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest reading: %w", err)
	}
	return reading, nil
}

// List returns readings matching the filter, most recent first.
func (r *SQLiteReadingRepository) List(ctx context.Context, filter ReadingFilter) ([]Reading, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 { //nolint:mnd // max page size for reading queries
		filter.Limit = 500
	}

	var conditions []string
	var args []any

	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT %s FROM readings %s ORDER BY timestamp DESC, id DESC LIMIT ?",
		readingColumns, where,
	)
	args = append(args, filter.Limit)

	return r.queryReadings(ctx, query, args...)
}

// Range returns readings between start and end inclusive, oldest first.
// Used by the CSV export.
func (r *SQLiteReadingRepository) Range(ctx context.Context, start, end time.Time) ([]Reading, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM readings WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC, id ASC",
		readingColumns,
	)
	return r.queryReadings(ctx, query,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
}

// LastN returns the n most recent readings, most recent first.
// Used by the insights analyser.
func (r *SQLiteReadingRepository) LastN(ctx context.Context, n int) ([]Reading, error) {
	if n <= 0 {
		return []Reading{}, nil
	}
	query := fmt.Sprintf(
		"SELECT %s FROM readings ORDER BY timestamp DESC, id DESC LIMIT ?",
		readingColumns,
	)
	return r.queryReadings(ctx, query, n)
}

func (r *SQLiteReadingRepository) queryReadings(ctx context.Context, query string, args ...any) ([]Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		reading, err := scanReading(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		readings = append(readings, *reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	if readings == nil {
		readings = []Reading{}
	}
	return readings, nil
}

// scanReading scans a reading row via the given scan function.
func scanReading(scan func(dest ...any) error) (*Reading, error) {
	var reading Reading
	var timestamp string

	err := scan(&reading.ID, &timestamp,
		&reading.AirTemp, &reading.Humidity, &reading.PH,
		&reading.WaterTemp, &reading.EC)
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing reading timestamp %q: %w", timestamp, err)
	}
	reading.Timestamp = t

	return &reading, nil
}

// SQLiteRelayStatusRepository stores relay snapshots in SQLite.
type SQLiteRelayStatusRepository struct {
	db *sql.DB
}

// NewSQLiteRelayStatusRepository creates a new relay status repository.
func NewSQLiteRelayStatusRepository(db *sql.DB) *SQLiteRelayStatusRepository {
	return &SQLiteRelayStatusRepository{db: db}
}

const relayStatusColumns = `id, timestamp, relay1_led, relay2_pump, relay3_ph_up,
	relay4_fan, relay5_humidity, relay6_ec, relay7_co2, relay8_generic`

// Insert stores a new relay status snapshot. The timestamp is assigned
// if zero and the row ID is written back.
func (r *SQLiteRelayStatusRepository) Insert(ctx context.Context, status *RelayStatus) error {
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO relay_status (timestamp, relay1_led, relay2_pump, relay3_ph_up,
		 relay4_fan, relay5_humidity, relay6_ec, relay7_co2, relay8_generic)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		status.Timestamp.Format(time.RFC3339),
		status.Relay1Led, status.Relay2Pump, status.Relay3PhUp, status.Relay4Fan,
		status.Relay5Humidity, status.Relay6EC, status.Relay7CO2, status.Relay8Generic,
	)
	if err != nil {
		return fmt.Errorf("inserting relay status: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("relay status insert id: %w", err)
	}
	status.ID = id

	return nil
}

// Latest returns the most recent relay status snapshot, or ErrNotFound
// if the table is empty.
func (r *SQLiteRelayStatusRepository) Latest(ctx context.Context) (*RelayStatus, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM relay_status ORDER BY timestamp DESC, id DESC LIMIT 1", relayStatusColumns),
	)

	var status RelayStatus
	var timestamp string
	err := row.Scan(&status.ID, &timestamp,
		&status.Relay1Led, &status.Relay2Pump, &status.Relay3PhUp, &status.Relay4Fan,
		&status.Relay5Humidity, &status.Relay6EC, &status.Relay7CO2, &status.Relay8Generic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest relay status: %w", err)
	}

	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing relay status timestamp %q: %w", timestamp, err)
	}
	status.Timestamp = t

	return &status, nil
}
