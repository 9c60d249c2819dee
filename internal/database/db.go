package database

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

// DB wraps the sqlite connection with pooling and prepared statements.
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling.
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool.
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

// GetStats returns connection pool statistics.
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

// NewDB opens (creating if needed) the score database under dataDir.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "osshs.db")

	// WAL keeps readers unblocked while the collector pipeline writes.
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

// migrate creates the necessary tables.
func (db *DB) migrate() error {
	queries := []string{
		// Latest score per project. Sub-scores are nullable: NULL means
		// the dimension was undefined at computation time, not zero.
		`CREATE TABLE IF NOT EXISTS project_scores (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL UNIQUE,
			project_name TEXT NOT NULL,
			popularity REAL,
			community REAL,
			license REAL,
			security REAL,
			versioning REAL,
			composite REAL NOT NULL,
			computed_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Append-only history of scoring runs, for trend queries and purges.
		`CREATE TABLE IF NOT EXISTS score_history (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			composite REAL NOT NULL,
			computed_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_project_scores_name ON project_scores(project_name)`,
		`CREATE INDEX IF NOT EXISTS idx_project_scores_composite ON project_scores(composite DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_score_history_project ON score_history(project_id, computed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_score_history_computed ON score_history(computed_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements.
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"upsert_score": `INSERT INTO project_scores (
			id, project_id, project_name, popularity, community, license,
			security, versioning, composite, computed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			project_name = excluded.project_name,
			popularity = excluded.popularity,
			community = excluded.community,
			license = excluded.license,
			security = excluded.security,
			versioning = excluded.versioning,
			composite = excluded.composite,
			computed_at = excluded.computed_at,
			updated_at = excluded.updated_at`,

		"insert_history": `INSERT INTO score_history (id, project_id, composite, computed_at)
			VALUES (?, ?, ?, ?)`,

		"get_score_by_name": `SELECT id, project_id, project_name, popularity, community,
			license, security, versioning, composite, computed_at, created_at, updated_at
			FROM project_scores WHERE project_name = ?`,

		"list_top_scores": `SELECT id, project_id, project_name, popularity, community,
			license, security, versioning, composite, computed_at, created_at, updated_at
			FROM project_scores ORDER BY composite DESC, project_name ASC LIMIT ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement.
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics.
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the prepared statements and the underlying connection.
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
