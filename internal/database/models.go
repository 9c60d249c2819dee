package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/openteams/osshs/internal/types"
)

// ScoreRow is the stored form of one project's latest score. Nullable
// sub-scores round-trip as pointers so an undefined dimension stays
// distinguishable from a zero score.
type ScoreRow struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	ProjectName string    `json:"project_name" db:"project_name"`
	Popularity  *float64  `json:"popularity" db:"popularity"`
	Community   *float64  `json:"community" db:"community"`
	License     *float64  `json:"license" db:"license"`
	Security    *float64  `json:"security" db:"security"`
	Versioning  *float64  `json:"versioning" db:"versioning"`
	Composite   float64   `json:"composite" db:"composite"`
	ComputedAt  time.Time `json:"computed_at" db:"computed_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// HistoryRow is one append-only entry in the composite score history.
type HistoryRow struct {
	ID         string    `json:"id" db:"id"`
	ProjectID  string    `json:"project_id" db:"project_id"`
	Composite  float64   `json:"composite" db:"composite"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// NewScoreRow builds a row from an engine score record.
func NewScoreRow(rec types.ScoreRecord) *ScoreRow {
	now := time.Now()
	return &ScoreRow{
		ID:          uuid.New().String(),
		ProjectID:   rec.ProjectID,
		ProjectName: rec.Name,
		Popularity:  rec.Popularity,
		Community:   rec.Community,
		License:     rec.License,
		Security:    rec.Security,
		Versioning:  rec.Versioning,
		Composite:   rec.Composite,
		ComputedAt:  rec.ComputedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Record converts a stored row back to the engine's record shape.
func (r *ScoreRow) Record() types.ScoreRecord {
	return types.ScoreRecord{
		ProjectID:  r.ProjectID,
		Name:       r.ProjectName,
		Popularity: r.Popularity,
		Community:  r.Community,
		License:    r.License,
		Security:   r.Security,
		Versioning: r.Versioning,
		Composite:  r.Composite,
		ComputedAt: r.ComputedAt,
	}
}
