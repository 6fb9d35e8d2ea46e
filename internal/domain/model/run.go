package model

import (
	"time"

	"github.com/google/uuid"
)

// RunState tracks the calibration controller's state machine:
// INIT → RUNNING → {CONVERGED, MAX_ITER_REACHED, DIVERGED} → DONE.
// A simulator failure leaves the run in FAILED with all prior history intact.
type RunState string

const (
	RunStateInit           RunState = "INIT"
	RunStateRunning        RunState = "RUNNING"
	RunStateConverged      RunState = "CONVERGED"
	RunStateMaxIterReached RunState = "MAX_ITER_REACHED"
	RunStateDiverged       RunState = "DIVERGED"
	RunStateDone           RunState = "DONE"
	RunStateFailed         RunState = "FAILED"
)

// Terminal reports whether the state ends the RUNNING loop.
func (s RunState) Terminal() bool {
	switch s {
	case RunStateConverged, RunStateMaxIterReached, RunStateDiverged, RunStateDone, RunStateFailed:
		return true
	}
	return false
}

// CalibrationRun is the persistent record of one calibration run.
type CalibrationRun struct {
	ID        uuid.UUID
	NetworkID string
	State     RunState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DetectorSummary aggregates one detector's discrepancy over the window.
type DetectorSummary struct {
	Detector      DetectorID `json:"detector"`
	Intervals     int        `json:"intervals"`
	MeanObserved  float64    `json:"mean_observed"`
	MeanSimulated float64    `json:"mean_simulated"`
	MeanAbsError  float64    `json:"mean_abs_error"`
	MeanRelError  float64    `json:"mean_rel_error"`
	GEH           float64    `json:"geh"`
	Excluded      bool       `json:"excluded"`
	ExcludeReason string     `json:"exclude_reason,omitempty"`
}

// IterationSummary records one completed iteration's outcome.
type IterationSummary struct {
	RunID        uuid.UUID `json:"run_id"`
	Iteration    int       `json:"iteration"`
	Fitness      float64   `json:"fitness"`
	RMSN         float64   `json:"rmsn"`
	MeanRelError float64   `json:"mean_rel_error"`
	MatchedPairs int       `json:"matched_pairs"`
	WarningCount int       `json:"warning_count"`
	TotalDemand  float64   `json:"total_demand"`
	SimulateMS   int64     `json:"simulate_ms"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// CalibrationReport is the run's exported outcome: ordered iteration
// history, the accepted iteration (best fitness seen, not necessarily the
// last), and the final per-detector discrepancy summaries.
type CalibrationReport struct {
	RunID             uuid.UUID          `json:"run_id"`
	NetworkID         string             `json:"network_id"`
	State             RunState           `json:"state"`
	AcceptedIteration int                `json:"accepted_iteration"`
	AcceptedFitness   float64            `json:"accepted_fitness"`
	TotalDemand       []float64          `json:"total_demand_per_interval"`
	Iterations        []IterationSummary `json:"iterations"`
	Detectors         []DetectorSummary  `json:"detectors"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
