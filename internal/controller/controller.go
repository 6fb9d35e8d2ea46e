// Package controller drives the calibration loop: simulate, match, score,
// adjust, repeat until a stopping rule fires. It owns the run's state
// machine and the durability protocol: every matrix and iteration summary is
// persisted before the next simulator call, so a crash never loses a
// completed iteration.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/johnlee-jh/traffic-microsimulation/internal/adjust"
	"github.com/johnlee-jh/traffic-microsimulation/internal/alert"
	"github.com/johnlee-jh/traffic-microsimulation/internal/discrepancy"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/johnlee-jh/traffic-microsimulation/internal/matcher"
	"github.com/johnlee-jh/traffic-microsimulation/internal/metrics"
	"github.com/johnlee-jh/traffic-microsimulation/internal/sim"
	"github.com/johnlee-jh/traffic-microsimulation/internal/store"
	"github.com/johnlee-jh/traffic-microsimulation/internal/store/redis"
	"github.com/johnlee-jh/traffic-microsimulation/internal/tracing"
)

// Options are the stopping rules and alerting thresholds for a run.
type Options struct {
	// ConvergenceThreshold ends the run once the fitness score drops to or
	// below it.
	ConvergenceThreshold float64
	// MaxIterations caps the number of evaluated iterations. Iteration 0
	// evaluates the initial matrix and counts against the cap.
	MaxIterations int
	// DivergenceMargin and DivergenceConsecutive declare divergence when the
	// score exceeds best-seen plus the margin for that many iterations in a
	// row.
	DivergenceMargin      float64
	DivergenceConsecutive int
	// WarningFlood sends an alert when one iteration produces at least this
	// many matching warnings. Zero disables the alert.
	WarningFlood int
}

func (o Options) validate() error {
	if o.ConvergenceThreshold < 0 {
		return fmt.Errorf("convergence threshold must be non-negative, got %g", o.ConvergenceThreshold)
	}
	if o.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	if o.DivergenceMargin <= 0 {
		return fmt.Errorf("divergence margin must be positive, got %g", o.DivergenceMargin)
	}
	if o.DivergenceConsecutive <= 0 {
		return fmt.Errorf("divergence streak must be positive, got %d", o.DivergenceConsecutive)
	}
	return nil
}

// Inputs are the loaded, validated artifacts one run operates on.
type Inputs struct {
	Network      *model.NetworkReference
	Observations *model.ObservationSet
	Initial      *model.ODMatrix
	Tables       model.StaticTables
}

// Outcome is a finished run: the report and the accepted demand matrix, the
// best-scoring matrix seen rather than the last one produced.
type Outcome struct {
	Report   *model.CalibrationReport
	Accepted *model.ODMatrix
}

// Controller coordinates one calibration run end to end.
type Controller struct {
	opts     Options
	sim      sim.Simulator
	matcher  *matcher.Matcher
	evalOpts discrepancy.Options
	engine   *adjust.Engine
	store    store.Store
	events   redis.EventPublisher
	alerter  alert.Alerter
	tracer   trace.Tracer
	logger   *slog.Logger
}

func New(
	opts Options,
	simulator sim.Simulator,
	m *matcher.Matcher,
	evalOpts discrepancy.Options,
	engine *adjust.Engine,
	st store.Store,
	events redis.EventPublisher,
	alerter alert.Alerter,
	logger *slog.Logger,
) (*Controller, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = redis.NewInMemory()
	}
	if alerter == nil {
		alerter = &alert.NoopAlerter{}
	}
	return &Controller{
		opts:     opts,
		sim:      simulator,
		matcher:  m,
		evalOpts: evalOpts,
		engine:   engine,
		store:    st,
		events:   events,
		alerter:  alerter,
		tracer:   tracing.Tracer("controller"),
		logger:   logger.With("component", "controller"),
	}, nil
}

// Run executes a fresh calibration run. Terminal outcomes CONVERGED,
// MAX_ITER_REACHED, and DIVERGED all return a report with a nil error; the
// report's state says which rule fired. A simulator failure is the one
// fatal path: the run is left FAILED with all completed iterations
// persisted, and the error is returned.
func (c *Controller) Run(ctx context.Context, runID uuid.UUID, in Inputs) (*Outcome, error) {
	run := &model.CalibrationRun{
		ID:        runID,
		NetworkID: in.Network.ID(),
		State:     model.RunStateInit,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := c.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if err := in.Initial.ValidateAgainst(in.Network); err != nil {
		c.failRun(ctx, runID, in.Network.ID())
		return nil, fmt.Errorf("initial matrix rejected: %w", err)
	}
	if err := c.persistSetup(ctx, runID, in); err != nil {
		c.failRun(ctx, runID, in.Network.ID())
		return nil, err
	}
	if err := c.store.UpdateRunState(ctx, runID, model.RunStateRunning); err != nil {
		return nil, fmt.Errorf("mark run running: %w", err)
	}

	return c.loop(ctx, runID, in, loopState{current: in.Initial, bestIteration: -1})
}

// Resume continues an interrupted run from its last persisted iteration.
// Terminal runs return their stored report unchanged.
func (c *Controller) Resume(ctx context.Context, runID uuid.UUID, in Inputs) (*Outcome, error) {
	run, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	// FAILED is terminal for the loop but not for the operator: resuming a
	// failed run re-simulates from the last persisted iteration.
	if run.State.Terminal() && run.State != model.RunStateFailed {
		report, err := c.store.LoadReport(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load report for terminal run: %w", err)
		}
		accepted, err := c.store.LoadMatrix(ctx, runID, report.AcceptedIteration)
		if err != nil {
			return nil, fmt.Errorf("load accepted matrix: %w", err)
		}
		return &Outcome{Report: report, Accepted: accepted}, nil
	}

	history, err := c.store.Iterations(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load iteration history: %w", err)
	}

	st := loopState{history: history, bestIteration: -1}
	for _, s := range history {
		if st.bestIteration < 0 || s.Fitness < st.bestFitness {
			st.bestIteration = s.Iteration
			st.bestFitness = s.Fitness
		}
	}
	// Rebuild the divergence streak from the tail of the history.
	if st.bestIteration >= 0 {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Fitness > st.bestFitness+c.opts.DivergenceMargin {
				st.divergenceStreak++
			} else {
				break
			}
		}
		best, err := c.store.LoadMatrix(ctx, runID, st.bestIteration)
		if err != nil {
			return nil, fmt.Errorf("load best matrix: %w", err)
		}
		st.best = best
	}

	// The matrix for the next iteration is persisted before its simulator
	// call, so it is present for every crash point except one: a crash
	// between the setup persist and iteration 0. Fall back to the initial
	// matrix only there.
	next := len(history)
	current, err := c.store.LoadMatrix(ctx, runID, next)
	if err != nil {
		if next > 0 {
			return nil, fmt.Errorf("load matrix for iteration %d: %w", next, err)
		}
		current = in.Initial
	}
	st.current = current

	if err := c.store.UpdateRunState(ctx, runID, model.RunStateRunning); err != nil {
		return nil, fmt.Errorf("mark run running: %w", err)
	}
	c.logger.Info("resuming run",
		"run_id", runID, "network", in.Network.ID(),
		"completed_iterations", next, "best_iteration", st.bestIteration)
	return c.loop(ctx, runID, in, st)
}

type loopState struct {
	current *model.ODMatrix
	history []model.IterationSummary

	best          *model.ODMatrix
	bestIteration int
	bestFitness   float64
	bestEval      *discrepancy.Evaluation

	divergenceStreak int
}

func (c *Controller) loop(ctx context.Context, runID uuid.UUID, in Inputs, st loopState) (*Outcome, error) {
	networkID := in.Network.ID()

	for iteration := len(st.history); iteration < c.opts.MaxIterations; iteration++ {
		summary, eval, err := c.iterate(ctx, runID, in, iteration, st.current)
		if err != nil {
			c.failRun(ctx, runID, networkID)
			c.sendAlert(ctx, alert.Alert{
				Type:    alert.AlertTypeSimFailure,
				RunID:   runID.String(),
				Network: networkID,
				Title:   "Calibration run failed",
				Message: err.Error(),
				Fields:  map[string]string{"iteration": fmt.Sprint(iteration)},
			})
			return nil, err
		}
		st.history = append(st.history, summary)

		if st.bestIteration < 0 || summary.Fitness < st.bestFitness {
			st.bestIteration = iteration
			st.bestFitness = summary.Fitness
			st.best = st.current
			st.bestEval = eval
		}

		metrics.IterationsTotal.WithLabelValues(networkID).Inc()
		metrics.FitnessScore.WithLabelValues(networkID).Set(summary.Fitness)
		metrics.BestFitnessScore.WithLabelValues(networkID).Set(st.bestFitness)
		c.publishEvent(ctx, runID, networkID, iteration, summary.Fitness, string(model.RunStateRunning))

		// Stopping rules, in precedence order.
		if summary.Fitness <= c.opts.ConvergenceThreshold {
			return c.terminate(ctx, runID, in, st, model.RunStateConverged)
		}
		if iteration == c.opts.MaxIterations-1 {
			return c.terminate(ctx, runID, in, st, model.RunStateMaxIterReached)
		}
		if summary.Fitness > st.bestFitness+c.opts.DivergenceMargin {
			st.divergenceStreak++
			if st.divergenceStreak >= c.opts.DivergenceConsecutive {
				return c.terminate(ctx, runID, in, st, model.RunStateDiverged)
			}
		} else {
			st.divergenceStreak = 0
		}

		next, err := c.engine.Adjust(networkID, st.current, eval)
		if err != nil {
			c.failRun(ctx, runID, networkID)
			return nil, fmt.Errorf("adjust iteration %d: %w", iteration, err)
		}
		if err := c.saveMatrix(ctx, runID, networkID, iteration+1, next); err != nil {
			c.failRun(ctx, runID, networkID)
			return nil, err
		}
		st.current = next
	}

	// Unreachable: the cap fires inside the loop. Kept as a guard against a
	// resumed history already at the cap.
	return c.terminate(ctx, runID, in, st, model.RunStateMaxIterReached)
}

// iterate runs one simulate-match-evaluate cycle and persists its summary.
func (c *Controller) iterate(
	ctx context.Context,
	runID uuid.UUID,
	in Inputs,
	iteration int,
	current *model.ODMatrix,
) (model.IterationSummary, *discrepancy.Evaluation, error) {
	ctx, span := c.tracer.Start(ctx, "calibration.iteration", trace.WithAttributes(
		attribute.String("run_id", runID.String()),
		attribute.String("network", in.Network.ID()),
		attribute.Int("iteration", iteration),
	))
	defer span.End()

	startedAt := time.Now().UTC()
	networkID := in.Network.ID()

	result, err := c.sim.Simulate(ctx, sim.SimulationRequest{
		RunID:     runID,
		Iteration: iteration,
		Network:   in.Network,
		Demand:    current,
		Tables:    in.Tables,
	})
	if err != nil {
		var simErr *sim.SimulationError
		if !errors.As(err, &simErr) {
			err = &sim.SimulationError{Engine: c.sim.Name(), Iteration: iteration, Err: err}
		}
		c.logger.Error("simulation failed",
			"run_id", runID, "network", networkID, "iteration", iteration,
			"error", err, "decision", sim.Classify(err).Class)
		return model.IterationSummary{}, nil, err
	}

	matched, err := c.matcher.Match(ctx, in.Network, in.Observations, result.Flows)
	if err != nil {
		return model.IterationSummary{}, nil, fmt.Errorf("match iteration %d: %w", iteration, err)
	}
	if c.opts.WarningFlood > 0 && len(matched.Warnings) >= c.opts.WarningFlood {
		c.sendAlert(ctx, alert.Alert{
			Type:    alert.AlertTypeWarningFlood,
			RunID:   runID.String(),
			Network: networkID,
			Title:   "Matching warning flood",
			Message: fmt.Sprintf("%d unmatched observations in iteration %d", len(matched.Warnings), iteration),
		})
	}

	eval, err := discrepancy.Evaluate(ctx, networkID, matched.Pairs, c.evalOpts)
	if err != nil {
		return model.IterationSummary{}, nil, fmt.Errorf("evaluate iteration %d: %w", iteration, err)
	}

	summary := model.IterationSummary{
		RunID:        runID,
		Iteration:    iteration,
		Fitness:      eval.Score,
		RMSN:         eval.RMSN,
		MeanRelError: eval.MeanRelError,
		MatchedPairs: len(matched.Pairs),
		WarningCount: len(matched.Warnings),
		TotalDemand:  totalDemand(current),
		SimulateMS:   result.Elapsed.Milliseconds(),
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
	}
	persistStart := time.Now()
	if err := c.store.AppendIteration(ctx, summary); err != nil {
		return model.IterationSummary{}, nil, fmt.Errorf("persist iteration %d summary: %w", iteration, err)
	}
	metrics.PersistDuration.WithLabelValues(networkID, "iteration").Observe(time.Since(persistStart).Seconds())
	metrics.IterationDuration.WithLabelValues(networkID).Observe(time.Since(startedAt).Seconds())

	span.SetAttributes(
		attribute.Float64("fitness", eval.Score),
		attribute.Int("matched_pairs", len(matched.Pairs)),
	)
	c.logger.Info("iteration complete",
		"run_id", runID, "network", networkID, "iteration", iteration,
		"fitness", eval.Score, "rmsn", eval.RMSN,
		"pairs", len(matched.Pairs), "warnings", len(matched.Warnings),
		"simulate_ms", summary.SimulateMS)
	return summary, eval, nil
}

func (c *Controller) terminate(
	ctx context.Context,
	runID uuid.UUID,
	in Inputs,
	st loopState,
	state model.RunState,
) (*Outcome, error) {
	networkID := in.Network.ID()
	if err := c.store.UpdateRunState(ctx, runID, state); err != nil {
		return nil, fmt.Errorf("mark run %s: %w", state, err)
	}
	metrics.RunsTerminated.WithLabelValues(networkID, string(state)).Inc()

	report := c.buildReport(runID, networkID, state, st)
	persistStart := time.Now()
	if err := c.store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	metrics.PersistDuration.WithLabelValues(networkID, "report").Observe(time.Since(persistStart).Seconds())

	c.publishEvent(ctx, runID, networkID, report.AcceptedIteration, report.AcceptedFitness, string(state))
	switch state {
	case model.RunStateDiverged:
		c.sendAlert(ctx, alert.Alert{
			Type:    alert.AlertTypeDiverged,
			RunID:   runID.String(),
			Network: networkID,
			Title:   "Calibration diverged",
			Message: fmt.Sprintf("score exceeded best %.3f by more than %.3f for %d consecutive iterations; accepted iteration %d",
				st.bestFitness, c.opts.DivergenceMargin, c.opts.DivergenceConsecutive, report.AcceptedIteration),
		})
	case model.RunStateConverged:
		c.sendAlert(ctx, alert.Alert{
			Type:    alert.AlertTypeConverged,
			RunID:   runID.String(),
			Network: networkID,
			Title:   "Calibration converged",
			Message: fmt.Sprintf("fitness %.3f at iteration %d", report.AcceptedFitness, report.AcceptedIteration),
		})
	}

	c.logger.Info("run terminated",
		"run_id", runID, "network", networkID, "state", state,
		"iterations", len(st.history),
		"accepted_iteration", report.AcceptedIteration,
		"accepted_fitness", report.AcceptedFitness)
	return &Outcome{Report: report, Accepted: st.best}, nil
}

func (c *Controller) buildReport(runID uuid.UUID, networkID string, state model.RunState, st loopState) *model.CalibrationReport {
	report := &model.CalibrationReport{
		RunID:             runID,
		NetworkID:         networkID,
		State:             state,
		AcceptedIteration: st.bestIteration,
		AcceptedFitness:   st.bestFitness,
		Iterations:        st.history,
		GeneratedAt:       time.Now().UTC(),
	}
	if st.best != nil {
		report.TotalDemand = make([]float64, st.best.Intervals())
		for t := range report.TotalDemand {
			report.TotalDemand[t] = st.best.TotalDemand(t)
		}
	}
	if st.bestEval != nil {
		report.Detectors = st.bestEval.Detectors
	}
	return report
}

func (c *Controller) persistSetup(ctx context.Context, runID uuid.UUID, in Inputs) error {
	networkID := in.Network.ID()
	start := time.Now()
	if err := c.store.SaveObservations(ctx, runID, in.Observations); err != nil {
		return fmt.Errorf("persist observations: %w", err)
	}
	metrics.PersistDuration.WithLabelValues(networkID, "observations").Observe(time.Since(start).Seconds())
	return c.saveMatrix(ctx, runID, networkID, 0, in.Initial)
}

func (c *Controller) saveMatrix(ctx context.Context, runID uuid.UUID, networkID string, iteration int, m *model.ODMatrix) error {
	start := time.Now()
	if err := c.store.SaveMatrix(ctx, runID, iteration, m); err != nil {
		return fmt.Errorf("persist matrix for iteration %d: %w", iteration, err)
	}
	metrics.PersistDuration.WithLabelValues(networkID, "matrix").Observe(time.Since(start).Seconds())
	return nil
}

func (c *Controller) failRun(ctx context.Context, runID uuid.UUID, networkID string) {
	if err := c.store.UpdateRunState(ctx, runID, model.RunStateFailed); err != nil {
		c.logger.Error("failed to mark run FAILED", "run_id", runID, "error", err)
	}
	metrics.RunsTerminated.WithLabelValues(networkID, string(model.RunStateFailed)).Inc()
}

func (c *Controller) publishEvent(ctx context.Context, runID uuid.UUID, networkID string, iteration int, fitness float64, state string) {
	ev := redis.IterationEvent{
		RunID:     runID,
		NetworkID: networkID,
		Iteration: iteration,
		Fitness:   fitness,
		State:     state,
		Timestamp: time.Now().UTC(),
	}
	if err := c.events.Publish(ctx, ev); err != nil {
		// Progress eventing is best effort; never fail the run over it.
		c.logger.Warn("publish iteration event", "run_id", runID, "error", err)
	}
}

func (c *Controller) sendAlert(ctx context.Context, a alert.Alert) {
	if err := c.alerter.Send(ctx, a); err != nil {
		c.logger.Warn("send alert", "type", a.Type, "run_id", a.RunID, "error", err)
	}
}

func totalDemand(m *model.ODMatrix) float64 {
	var total float64
	for t := 0; t < m.Intervals(); t++ {
		total += m.TotalDemand(t)
	}
	return total
}
