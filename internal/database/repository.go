package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openteams/osshs/internal/types"
)

// ErrScoreNotFound is returned when a project has no stored score.
var ErrScoreNotFound = errors.New("score not found")

// Repository handles score persistence.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SaveScore upserts the latest score for a project and appends a history
// entry. The two writes share a transaction so history never references a
// score that was not stored.
func (r *Repository) SaveScore(ctx context.Context, rec types.ScoreRecord) (*ScoreRow, error) {
	row := NewScoreRow(rec)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := r.db.GetPreparedStatement("upsert_score")
	if err != nil {
		return nil, err
	}
	_, err = tx.StmtContext(ctx, upsert).ExecContext(ctx,
		row.ID, row.ProjectID, row.ProjectName,
		row.Popularity, row.Community, row.License, row.Security, row.Versioning,
		row.Composite, row.ComputedAt, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save score for %s: %w", rec.Name, err)
	}

	history, err := r.db.GetPreparedStatement("insert_history")
	if err != nil {
		return nil, err
	}
	_, err = tx.StmtContext(ctx, history).ExecContext(ctx,
		uuid.New().String(), row.ProjectID, row.Composite, row.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record score history for %s: %w", rec.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit score for %s: %w", rec.Name, err)
	}

	return row, nil
}

// GetScoreByName returns the latest score for a project name.
func (r *Repository) GetScoreByName(ctx context.Context, name string) (*ScoreRow, error) {
	stmt, err := r.db.GetPreparedStatement("get_score_by_name")
	if err != nil {
		return nil, err
	}

	var row ScoreRow
	err = stmt.QueryRowContext(ctx, name).Scan(
		&row.ID, &row.ProjectID, &row.ProjectName,
		&row.Popularity, &row.Community, &row.License, &row.Security, &row.Versioning,
		&row.Composite, &row.ComputedAt, &row.CreatedAt, &row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", name, ErrScoreNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query score for %q: %w", name, err)
	}

	return &row, nil
}

// ListTopScores returns up to limit projects ordered by composite score
// descending, ties broken by name.
func (r *Repository) ListTopScores(ctx context.Context, limit int) ([]*ScoreRow, error) {
	if limit < 1 {
		limit = 10
	}

	stmt, err := r.db.GetPreparedStatement("list_top_scores")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top scores: %w", err)
	}
	defer rows.Close()

	var out []*ScoreRow
	for rows.Next() {
		var row ScoreRow
		err := rows.Scan(
			&row.ID, &row.ProjectID, &row.ProjectName,
			&row.Popularity, &row.Community, &row.License, &row.Security, &row.Versioning,
			&row.Composite, &row.ComputedAt, &row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		out = append(out, &row)
	}

	return out, rows.Err()
}

// GetHistory returns the composite history for a project, newest first.
func (r *Repository) GetHistory(ctx context.Context, projectID string, limit int) ([]*HistoryRow, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, composite, computed_at
		FROM score_history
		WHERE project_id = ?
		ORDER BY computed_at DESC
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %q: %w", projectID, err)
	}
	defer rows.Close()

	var out []*HistoryRow
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(&row.ID, &row.ProjectID, &row.Composite, &row.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, &row)
	}

	return out, rows.Err()
}

// PurgeHistoryBefore deletes history entries older than the cutoff and
// returns how many were removed. Latest scores are never purged.
func (r *Repository) PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM score_history WHERE computed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge history: %w", err)
	}
	return res.RowsAffected()
}

// PoolStats exposes connection pool statistics for the health endpoint.
func (r *Repository) PoolStats() map[string]interface{} {
	return r.db.GetPoolStats()
}

// CountScores returns the number of projects with a stored score.
func (r *Repository) CountScores(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return n, nil
}
