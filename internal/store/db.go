package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection for the activity store.
type DB struct {
	*sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewDB opens (creating if needed) the activity database under dataDir.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "teampulse.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{
		DB:           db,
		maxOpenConns: 25,
		maxIdleConns: 5,
		maxLifetime:  5 * time.Minute,
	}
	db.SetMaxOpenConns(database.maxOpenConns)
	db.SetMaxIdleConns(database.maxIdleConns)
	db.SetConnMaxLifetime(database.maxLifetime)

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Activity store initialized",
		"path", dbPath,
		"max_open_conns", database.maxOpenConns,
		"max_idle_conns", database.maxIdleConns)

	return database, nil
}

// migrate creates the activity tables.
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS developers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS commits (
			id TEXT PRIMARY KEY,
			developer_id INTEGER NOT NULL,
			hash TEXT NOT NULL UNIQUE,
			message TEXT,
			lines_added INTEGER NOT NULL DEFAULT 0,
			lines_removed INTEGER NOT NULL DEFAULT 0,
			timestamp DATETIME NOT NULL,
			is_merge BOOLEAN NOT NULL DEFAULT FALSE,
			ticket_key TEXT,
			FOREIGN KEY (developer_id) REFERENCES developers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			title TEXT,
			assignee_id INTEGER,
			status TEXT NOT NULL,
			story_points INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			closed_at DATETIME,
			time_spent_hours REAL NOT NULL DEFAULT 0,
			FOREIGN KEY (assignee_id) REFERENCES developers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id INTEGER NOT NULL,
			recipient_id INTEGER,
			timestamp DATETIME NOT NULL,
			length INTEGER NOT NULL DEFAULT 0,
			sentiment_score REAL NOT NULL DEFAULT 0,
			is_quick_response BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (sender_id) REFERENCES developers(id),
			FOREIGN KEY (recipient_id) REFERENCES developers(id)
		)`,

		// The extractor filters by developer and timestamp range on every
		// scoring request; these indexes keep those queries cheap.
		`CREATE INDEX IF NOT EXISTS idx_commits_developer_ts ON commits(developer_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_assignee_status ON tickets(assignee_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_closed_at ON tickets(closed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender_ts ON messages(sender_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_recipient_ts ON messages(recipient_id, timestamp)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// PoolStats returns connection pool statistics.
func (db *DB) PoolStats() map[string]interface{} {
	stats := db.Stats()
	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": db.maxOpenConns,
		"max_idle_connections": db.maxIdleConns,
		"max_lifetime_seconds": db.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}
