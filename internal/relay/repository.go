package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CommandRepository defines storage operations for relay commands.
type CommandRepository interface {
	Insert(ctx context.Context, cmd *Command) error
	Get(ctx context.Context, id int64) (*Command, error)
	ListPending(ctx context.Context) ([]Command, error)
	List(ctx context.Context, limit int) ([]Command, error)
	MarkExecuted(ctx context.Context, id int64) error
}

// ConfigRepository defines storage operations for relay configs.
type ConfigRepository interface {
	Get(ctx context.Context, relayIndex int) (*Config, error)
	GetAll(ctx context.Context) ([]Config, error)
	Upsert(ctx context.Context, cfg *Config) error
}

// SQLiteCommandRepository stores relay commands in SQLite.
type SQLiteCommandRepository struct {
	db *sql.DB
}

// NewSQLiteCommandRepository creates a new command repository.
func NewSQLiteCommandRepository(db *sql.DB) *SQLiteCommandRepository {
	return &SQLiteCommandRepository{db: db}
}

const commandColumns = "id, relay_index, command, executed, created_at"

// Insert stores a new command with executed=false. The timestamp is
// assigned if zero and the row ID is written back.
func (r *SQLiteCommandRepository) Insert(ctx context.Context, cmd *Command) error {
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now().UTC()
	}
	cmd.Executed = false

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO relay_commands (relay_index, command, executed, created_at)
		 VALUES (?, ?, 0, ?)`,
		cmd.RelayIndex, cmd.Command, cmd.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting relay command: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("relay command insert id: %w", err)
	}
	cmd.ID = id

	return nil
}

// Get returns a single command by ID, or ErrNotFound.
func (r *SQLiteCommandRepository) Get(ctx context.Context, id int64) (*Command, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM relay_commands WHERE id = ?", commandColumns), id,
	)
	cmd, err := scanCommand(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying relay command: %w", err)
	}
	return cmd, nil
}

// ListPending returns unexecuted commands, oldest first, so an executor
// delivers them in issue order.
func (r *SQLiteCommandRepository) ListPending(ctx context.Context) ([]Command, error) {
	return r.queryCommands(ctx,
		fmt.Sprintf("SELECT %s FROM relay_commands WHERE executed = 0 ORDER BY created_at ASC, id ASC", commandColumns),
	)
}

// List returns the most recent commands, newest first.
func (r *SQLiteCommandRepository) List(ctx context.Context, limit int) ([]Command, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 { //nolint:mnd // max page size for command queries
		limit = 200
	}
	return r.queryCommands(ctx,
		fmt.Sprintf("SELECT %s FROM relay_commands ORDER BY created_at DESC, id DESC LIMIT ?", commandColumns),
		limit,
	)
}

// MarkExecuted flips the claim flag on a command. Returns ErrNotFound
// if the command does not exist. Marking an already-executed command is
// a no-op success.
func (r *SQLiteCommandRepository) MarkExecuted(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE relay_commands SET executed = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking command executed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking command executed: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteCommandRepository) queryCommands(ctx context.Context, query string, args ...any) ([]Command, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relay commands: %w", err)
	}
	defer rows.Close()

	var commands []Command
	for rows.Next() {
		cmd, err := scanCommand(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning relay command: %w", err)
		}
		commands = append(commands, *cmd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relay commands: %w", err)
	}

	if commands == nil {
		commands = []Command{}
	}
	return commands, nil
}

func scanCommand(scan func(dest ...any) error) (*Command, error) {
	var cmd Command
	var createdAt string

	if err := scan(&cmd.ID, &cmd.RelayIndex, &cmd.Command, &cmd.Executed, &createdAt); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing command timestamp %q: %w", createdAt, err)
	}
	cmd.Timestamp = t

	return &cmd, nil
}

// SQLiteConfigRepository stores relay configs in SQLite.
type SQLiteConfigRepository struct {
	db *sql.DB
}

// NewSQLiteConfigRepository creates a new config repository.
func NewSQLiteConfigRepository(db *sql.DB) *SQLiteConfigRepository {
	return &SQLiteConfigRepository{db: db}
}

const configColumns = `relay_index, mode, name, led_on_hour, led_off_hour,
	cycle_on_min, cycle_off_min, ph_threshold_low, ph_threshold_high, ph_pulse_sec,
	temp_threshold_on, temp_threshold_off, humidity_threshold_on, humidity_threshold_off,
	ec_threshold, ec_pulse_sec, updated_at`

// Get returns the config for a relay, or ErrNotFound.
func (r *SQLiteConfigRepository) Get(ctx context.Context, relayIndex int) (*Config, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM relay_configs WHERE relay_index = ?", configColumns),
		relayIndex,
	)
	cfg, err := scanConfig(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying relay config: %w", err)
	}
	return cfg, nil
}

// GetAll returns all relay configs ordered by relay index.
func (r *SQLiteConfigRepository) GetAll(ctx context.Context) ([]Config, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM relay_configs ORDER BY relay_index ASC", configColumns),
	)
	if err != nil {
		return nil, fmt.Errorf("querying relay configs: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		cfg, err := scanConfig(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning relay config: %w", err)
		}
		configs = append(configs, *cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relay configs: %w", err)
	}

	if configs == nil {
		configs = []Config{}
	}
	return configs, nil
}

// Upsert saves a config, replacing any existing row for the same
// relay_index (last-write-wins, no optimistic concurrency). UpdatedAt
// is always set to now.
func (r *SQLiteConfigRepository) Upsert(ctx context.Context, cfg *Config) error {
	cfg.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO relay_configs (relay_index, mode, name, led_on_hour, led_off_hour,
		 cycle_on_min, cycle_off_min, ph_threshold_low, ph_threshold_high, ph_pulse_sec,
		 temp_threshold_on, temp_threshold_off, humidity_threshold_on, humidity_threshold_off,
		 ec_threshold, ec_pulse_sec, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(relay_index) DO UPDATE SET
		   mode = excluded.mode,
		   name = excluded.name,
		   led_on_hour = excluded.led_on_hour,
		   led_off_hour = excluded.led_off_hour,
		   cycle_on_min = excluded.cycle_on_min,
		   cycle_off_min = excluded.cycle_off_min,
		   ph_threshold_low = excluded.ph_threshold_low,
		   ph_threshold_high = excluded.ph_threshold_high,
		   ph_pulse_sec = excluded.ph_pulse_sec,
		   temp_threshold_on = excluded.temp_threshold_on,
		   temp_threshold_off = excluded.temp_threshold_off,
		   humidity_threshold_on = excluded.humidity_threshold_on,
		   humidity_threshold_off = excluded.humidity_threshold_off,
		   ec_threshold = excluded.ec_threshold,
		   ec_pulse_sec = excluded.ec_pulse_sec,
		   updated_at = excluded.updated_at`,
		cfg.RelayIndex, string(cfg.Mode), cfg.Name, cfg.LedOnHour, cfg.LedOffHour,
		cfg.CycleOnMin, cfg.CycleOffMin, cfg.PhThresholdLow, cfg.PhThresholdHigh, cfg.PhPulseSec,
		cfg.TempThresholdOn, cfg.TempThresholdOff, cfg.HumidityThresholdOn, cfg.HumidityThresholdOff,
		cfg.ECThreshold, cfg.ECPulseSec, cfg.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting relay config: %w", err)
	}

	return nil
}

func scanConfig(scan func(dest ...any) error) (*Config, error) {
	var cfg Config
	var mode, updatedAt string

	err := scan(&cfg.RelayIndex, &mode, &cfg.Name, &cfg.LedOnHour, &cfg.LedOffHour,
		&cfg.CycleOnMin, &cfg.CycleOffMin, &cfg.PhThresholdLow, &cfg.PhThresholdHigh, &cfg.PhPulseSec,
		&cfg.TempThresholdOn, &cfg.TempThresholdOff, &cfg.HumidityThresholdOn, &cfg.HumidityThresholdOff,
		&cfg.ECThreshold, &cfg.ECPulseSec, &updatedAt)
	if err != nil {
		return nil, err
	}
	cfg.Mode = Mode(mode)

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing config timestamp %q: %w", updatedAt, err)
	}
	cfg.UpdatedAt = t

	return &cfg, nil
}
