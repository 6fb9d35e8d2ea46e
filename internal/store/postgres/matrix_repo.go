package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/lib/pq"
)

type MatrixRepo struct {
	db *DB
}

func NewMatrixRepo(db *DB) *MatrixRepo {
	return &MatrixRepo{db: db}
}

// SaveMatrix writes all cells of one iteration's matrix in a single
// transaction so a partially-written matrix is never visible.
func (r *MatrixRepo) SaveMatrix(ctx context.Context, runID uuid.UUID, iteration int, m *model.ODMatrix) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save matrix: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM od_matrix_cells WHERE run_id = $1 AND iteration = $2
	`, runID, iteration); err != nil {
		return fmt.Errorf("clear matrix cells: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"od_matrix_cells",
		"run_id", "iteration", "origin", "destination", "interval", "demand", "intervals",
	))
	if err != nil {
		return fmt.Errorf("prepare matrix copy: %w", err)
	}
	for _, c := range m.Cells() {
		if _, err := stmt.ExecContext(ctx,
			runID, iteration, string(c.Origin), string(c.Destination), c.Interval, c.Demand, m.Intervals(),
		); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy matrix cell: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush matrix copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close matrix copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save matrix: %w", err)
	}
	return nil
}

func (r *MatrixRepo) LoadMatrix(ctx context.Context, runID uuid.UUID, iteration int) (*model.ODMatrix, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT origin, destination, interval, demand, intervals
		FROM od_matrix_cells
		WHERE run_id = $1 AND iteration = $2
		ORDER BY origin, destination, interval
	`, runID, iteration)
	if err != nil {
		return nil, fmt.Errorf("load matrix: %w", err)
	}
	defer rows.Close()

	intervals := 0
	var cells []model.ODCell
	for rows.Next() {
		var c model.ODCell
		if err := rows.Scan(&c.Origin, &c.Destination, &c.Interval, &c.Demand, &intervals); err != nil {
			return nil, fmt.Errorf("scan matrix cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matrix cells: %w", err)
	}
	if intervals == 0 {
		return nil, fmt.Errorf("no matrix stored for run %s iteration %d", runID, iteration)
	}
	return model.NewODMatrix(intervals, cells)
}
