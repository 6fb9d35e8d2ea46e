package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
)

// SimulationRequest carries everything the external engine needs for one
// run: the network identity, the demand matrix, and the static tables the
// engine consumes unchanged.
type SimulationRequest struct {
	RunID     uuid.UUID
	Iteration int
	Network   *model.NetworkReference
	Demand    *model.ODMatrix
	Tables    model.StaticTables
}

// SimulationResult is the engine's per-section, per-interval flow output.
type SimulationResult struct {
	Flows         *model.SimulatedFlowSet
	EngineVersion string
	Elapsed       time.Duration
}

// Simulator abstracts the external, host-controlled simulation engine so
// the calibration core operates engine-agnostically. Invoked synchronously
// once per iteration; the core does not manage the engine's scheduling.
type Simulator interface {
	// Name identifies the engine (e.g. "aimsun-http").
	Name() string

	// Simulate runs one scenario and returns its flows. A timeout or crash
	// surfaces as *SimulationError; the caller must treat it as fatal for
	// the iteration and must not guess a replacement flow set.
	Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error)
}

// SimulationError wraps a failed simulator invocation.
type SimulationError struct {
	Engine    string
	Iteration int
	Timeout   bool
	Err       error
}

func (e *SimulationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("simulation %s iteration %d timed out: %v", e.Engine, e.Iteration, e.Err)
	}
	return fmt.Sprintf("simulation %s iteration %d failed: %v", e.Engine, e.Iteration, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }
