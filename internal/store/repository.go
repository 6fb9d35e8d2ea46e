package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
)

// TxBeginner abstracts the ability to begin a database transaction.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// MatrixRepository persists one OD matrix per (run, iteration) so any
// iteration's demand can be independently located and reloaded.
type MatrixRepository interface {
	SaveMatrix(ctx context.Context, runID uuid.UUID, iteration int, m *model.ODMatrix) error
	LoadMatrix(ctx context.Context, runID uuid.UUID, iteration int) (*model.ODMatrix, error)
}

// ObservationRepository persists the run's detector observations.
type ObservationRepository interface {
	SaveObservations(ctx context.Context, runID uuid.UUID, s *model.ObservationSet) error
	LoadObservations(ctx context.Context, runID uuid.UUID) (*model.ObservationSet, error)
}

// RunRepository persists run records and per-iteration summaries.
type RunRepository interface {
	CreateRun(ctx context.Context, run *model.CalibrationRun) error
	UpdateRunState(ctx context.Context, runID uuid.UUID, state model.RunState) error
	GetRun(ctx context.Context, runID uuid.UUID) (*model.CalibrationRun, error)
	AppendIteration(ctx context.Context, s model.IterationSummary) error
	Iterations(ctx context.Context, runID uuid.UUID) ([]model.IterationSummary, error)
}

// ReportRepository persists the final calibration report.
type ReportRepository interface {
	SaveReport(ctx context.Context, r *model.CalibrationReport) error
	LoadReport(ctx context.Context, runID uuid.UUID) (*model.CalibrationReport, error)
}

// Store bundles the repositories a calibration run needs.
type Store interface {
	MatrixRepository
	ObservationRepository
	RunRepository
	ReportRepository
}
