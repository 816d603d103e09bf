// Package database provides SQLite persistence for AquaSys Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded schema migrations (sequence-numbered .up/.down pairs)
//   - Connection pool sizing for SQLite's single-writer model
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are embedded by the top-level migrations package and
// named NNNN_description.up.sql / NNNN_description.down.sql. Migrations
// are additive-only: new columns must be nullable or carry defaults.
package database
