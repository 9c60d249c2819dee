package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openteams/osshs/internal/licenses"
	"github.com/openteams/osshs/internal/types"
)

// Engine computes ScoreRecords from ProjectMetrics. It is a pure function
// of its inputs: the license table and dimension weights are injected at
// construction and never mutated, so one Engine is safe for concurrent use.
type Engine struct {
	weights  Weights
	licenses *licenses.Table
}

// NewEngine builds an engine with the given weights and license table.
func NewEngine(w Weights, table *licenses.Table) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("engine: %w: nil license table", ErrInvalidInput)
	}
	return &Engine{weights: w, licenses: table}, nil
}

// Weights returns the configured dimension weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score runs the full pipeline for one project. Per-dimension undefined
// states (unknown license, no security checks, all versioning metrics null,
// missing dimension data) leave the sub-score nil and exclude it from the
// composite with renormalized weights. Invalid input fails the whole record;
// so does a project where every dimension is undefined.
func (e *Engine) Score(m types.ProjectMetrics) (types.ScoreRecord, error) {
	rec := types.ScoreRecord{
		ProjectID:  m.ProjectID,
		Name:       m.Name,
		ComputedAt: time.Now().UTC(),
	}

	if m.Popularity != nil {
		v, err := PopularityScore(m.Popularity)
		if err != nil {
			return types.ScoreRecord{}, fmt.Errorf("project %s: %w", m.Name, err)
		}
		rec.Popularity = &v
	}

	if m.Community != nil {
		v, err := CommunityScore(m.Community)
		if err != nil {
			return types.ScoreRecord{}, fmt.Errorf("project %s: %w", m.Name, err)
		}
		rec.Community = &v
	}

	if m.License != nil {
		v, err := LicenseScore(e.licenses, *m.License)
		switch {
		case errors.Is(err, ErrUnknownLicense):
			// Surfaced as missing data: the dimension stays undefined.
		case err != nil:
			return types.ScoreRecord{}, fmt.Errorf("project %s: %w", m.Name, err)
		default:
			rec.License = &v
		}
	}

	if len(m.Security) > 0 {
		v, err := SecurityScore(m.Security)
		switch {
		case errors.Is(err, ErrNoSecurityChecks):
		case err != nil:
			return types.ScoreRecord{}, fmt.Errorf("project %s: %w", m.Name, err)
		default:
			rec.Security = &v
		}
	}

	if m.Versioning != nil {
		v, err := VersioningScore(m.Versioning)
		switch {
		case errors.Is(err, ErrAllVersioningMetricsNull):
		case err != nil:
			return types.ScoreRecord{}, fmt.Errorf("project %s: %w", m.Name, err)
		default:
			rec.Versioning = &v
		}
	}

	composite, ok := weightedMeanAvailable(
		[]*float64{rec.Popularity, rec.Community, rec.License, rec.Security, rec.Versioning},
		[]float64{e.weights.Popularity, e.weights.Community, e.weights.License, e.weights.Security, e.weights.Versioning},
	)
	if !ok {
		return types.ScoreRecord{}, fmt.Errorf("project %s: %w", m.Name, ErrAllDimensionsUndefined)
	}
	rec.Composite = round2(composite)

	return rec, nil
}

// Outcome pairs a project's score record with its computation error; one of
// the two is meaningful.
type Outcome struct {
	Record types.ScoreRecord
	Err    error
}

// ScoreAll scores a batch of projects across worker goroutines. Projects
// are independent, so the only synchronization is collecting results;
// outcomes are returned in input order. A canceled context marks the
// remaining projects with the context error.
func (e *Engine) ScoreAll(ctx context.Context, projects []types.ProjectMetrics, workers int) []Outcome {
	if workers < 1 {
		workers = 1
	}
	outcomes := make([]Outcome, len(projects))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if err := ctx.Err(); err != nil {
					outcomes[i] = Outcome{Err: err}
					continue
				}
				rec, err := e.Score(projects[i])
				outcomes[i] = Outcome{Record: rec, Err: err}
			}
		}()
	}

	for i := range projects {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return outcomes
}
