// Package store keeps console history, in SQLite or in memory.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/soyeahso/gacc/internal/logging"
)

const memoryPath = ":memory:"

// ErrSchema is returned when an existing history table lacks columns the
// store reads or writes.
var ErrSchema = errors.New("unexpected history schema")

// historyColumns are the columns Record and Recent use.
var historyColumns = []string{
	"seq", "id", "line", "command", "status", "message", "duration_us", "source", "created_at",
}

// DB is an open history database.
type DB struct {
	sql *sql.DB
	log *logging.Logger
}

// OpenHistory opens the history database at path and returns a store on it.
func OpenHistory(path string, log *logging.Logger) (*SQLiteHistory, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, err
	}
	return NewSQLiteHistory(db), nil
}

// Open opens or creates the history database at path, applies pending
// migrations and checks the history table. ":memory:" gives a private
// in-memory database.
func Open(path string, log *logging.Logger) (*DB, error) {
	sqlDB, err := connect(path)
	if err != nil {
		return nil, err
	}

	db := &DB{sql: sqlDB, log: log.Sub("store")}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := db.checkHistoryTable(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	version, err := db.SchemaVersion()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if latest := migrations[len(migrations)-1].Version; version > latest {
		db.log.Warn().Int("schema", version).Int("known", latest).
			Msg("history database was written by a newer version")
	}

	db.log.Info().Str("path", path).Int("schema", version).Msg("history database opened")
	return db, nil
}

func connect(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if path == memoryPath {
		// each pooled connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
		return sqlDB, nil
	}
	// the gateway and the terminal may record at the same time
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return sqlDB, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.log.Info().Msg("closing history database")
	return db.sql.Close()
}

// SchemaVersion returns the highest applied migration, or 0.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.sql.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

func (db *DB) migrate() error {
	if _, err := db.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := db.appliedVersions()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		db.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := db.apply(m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) appliedVersions() (map[int]bool, error) {
	rows, err := db.sql.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (db *DB) apply(m migration) (err error) {
	tx, err := db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err = tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		return fmt.Errorf("recording migration %d: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// checkHistoryTable fails with ErrSchema unless the history table has every
// column in historyColumns.
func (db *DB) checkHistoryTable() error {
	rows, err := db.sql.Query("SELECT name FROM pragma_table_info('history')")
	if err != nil {
		return fmt.Errorf("inspecting history table: %w", err)
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("inspecting history table: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspecting history table: %w", err)
	}

	if len(have) == 0 {
		return fmt.Errorf("%w: no history table", ErrSchema)
	}
	var missing []string
	for _, c := range historyColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: history table lacks %s", ErrSchema, strings.Join(missing, ", "))
	}
	return nil
}
