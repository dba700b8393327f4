package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (or creates) a gate database file under dataDir.
func NewDB(dataDir, fileName string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, fileName)

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS metric_samples (
			id TEXT PRIMARY KEY,
			metric_id TEXT NOT NULL,
			value REAL NOT NULL,
			session_id TEXT NOT NULL,
			recorded_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS evaluation_results (
			id TEXT PRIMARY KEY,
			period_start DATETIME NOT NULL,
			period_end DATETIME NOT NULL,
			weighted_total REAL NOT NULL,
			decision TEXT NOT NULL,
			scores TEXT NOT NULL,    -- JSON metric_id -> score
			summaries TEXT NOT NULL, -- JSON period summaries
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			result_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			metric_id TEXT NOT NULL,
			priority TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (result_id, position),
			FOREIGN KEY (result_id) REFERENCES evaluation_results(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_metric_time ON metric_samples(metric_id, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_session ON metric_samples(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_period ON evaluation_results(period_end DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_sample": `INSERT INTO metric_samples (id, metric_id, value, session_id, recorded_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,

		"samples_for_period": `SELECT metric_id, value, session_id, recorded_at
			FROM metric_samples
			WHERE metric_id = ? AND recorded_at >= ? AND recorded_at < ?
			ORDER BY recorded_at ASC, id ASC`,

		"insert_result": `INSERT OR IGNORE INTO evaluation_results (
			id, period_start, period_end, weighted_total, decision, scores, summaries, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,

		"get_result": `SELECT id, period_start, period_end, weighted_total, decision, scores, summaries
			FROM evaluation_results WHERE id = ?`,

		"latest_result": `SELECT id, period_start, period_end, weighted_total, decision, scores, summaries
			FROM evaluation_results ORDER BY period_end DESC, created_at DESC LIMIT 1`,

		"get_recommendations": `SELECT metric_id, priority, message
			FROM recommendations WHERE result_id = ? ORDER BY position ASC`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
