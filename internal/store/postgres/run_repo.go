package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
)

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(ctx context.Context, run *model.CalibrationRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calibration_runs (id, network_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`, run.ID, run.NetworkID, string(run.State), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepo) UpdateRunState(ctx context.Context, runID uuid.UUID, state model.RunState) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE calibration_runs SET state = $2, updated_at = now() WHERE id = $1
	`, runID, string(state))
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	return nil
}

func (r *RunRepo) GetRun(ctx context.Context, runID uuid.UUID) (*model.CalibrationRun, error) {
	var run model.CalibrationRun
	err := r.db.QueryRowContext(ctx, `
		SELECT id, network_id, state, created_at, updated_at
		FROM calibration_runs WHERE id = $1
	`, runID).Scan(&run.ID, &run.NetworkID, &run.State, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

func (r *RunRepo) AppendIteration(ctx context.Context, s model.IterationSummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calibration_iterations
			(run_id, iteration, fitness, rmsn, mean_rel_error, matched_pairs,
			 warning_count, total_demand, simulate_ms, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.RunID, s.Iteration, s.Fitness, s.RMSN, s.MeanRelError, s.MatchedPairs,
		s.WarningCount, s.TotalDemand, s.SimulateMS, s.StartedAt, s.FinishedAt)
	if err != nil {
		return fmt.Errorf("append iteration: %w", err)
	}
	return nil
}

func (r *RunRepo) Iterations(ctx context.Context, runID uuid.UUID) ([]model.IterationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, iteration, fitness, rmsn, mean_rel_error, matched_pairs,
		       warning_count, total_demand, simulate_ms, started_at, finished_at
		FROM calibration_iterations
		WHERE run_id = $1
		ORDER BY iteration
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load iterations: %w", err)
	}
	defer rows.Close()

	var out []model.IterationSummary
	for rows.Next() {
		var s model.IterationSummary
		if err := rows.Scan(&s.RunID, &s.Iteration, &s.Fitness, &s.RMSN, &s.MeanRelError,
			&s.MatchedPairs, &s.WarningCount, &s.TotalDemand, &s.SimulateMS,
			&s.StartedAt, &s.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iterations: %w", err)
	}
	return out, nil
}

// SaveReport stores the full report as JSONB so downstream tooling can read
// it without joining iteration rows.
func (r *RunRepo) SaveReport(ctx context.Context, report *model.CalibrationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calibration_reports (run_id, report, generated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id) DO UPDATE SET
			report = EXCLUDED.report,
			generated_at = EXCLUDED.generated_at
	`, report.RunID, payload, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (r *RunRepo) LoadReport(ctx context.Context, runID uuid.UUID) (*model.CalibrationReport, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT report FROM calibration_reports WHERE run_id = $1
	`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no report for run %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var report model.CalibrationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}

// Store composes the postgres repositories behind store.Store.
type Store struct {
	*MatrixRepo
	*ObservationRepo
	*RunRepo
}

func NewStore(db *DB) *Store {
	return &Store{
		MatrixRepo:      NewMatrixRepo(db),
		ObservationRepo: NewObservationRepo(db),
		RunRepo:         NewRunRepo(db),
	}
}
