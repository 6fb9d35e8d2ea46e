// Package matcher pairs detector observations with the simulated flows on
// the same section and time interval.
package matcher

import (
	"context"
	"log/slog"
	"sort"

	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/johnlee-jh/traffic-microsimulation/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// WarningReason explains why a detector observation could not be matched.
type WarningReason string

const (
	// ReasonUnknownDetector: the observation's detector is not in the
	// network reference (e.g. its section was dropped from the network).
	ReasonUnknownDetector WarningReason = "unknown_detector"
	// ReasonNoSimulatedFlow: the detector's section produced no simulated
	// flow for the interval.
	ReasonNoSimulatedFlow WarningReason = "no_simulated_flow"
)

// Warning records one unmatched observation. Non-fatal: recorded and
// excluded from aggregation.
type Warning struct {
	Detector model.DetectorID
	Section  model.SectionID
	Interval int
	Reason   WarningReason
}

// Result is the ordered matching outcome for one iteration. Pairs are
// sorted by (detector, interval) so downstream aggregation is reproducible.
type Result struct {
	Pairs    []model.MatchedPair
	Warnings []Warning
}

type Matcher struct {
	workers int
	logger  *slog.Logger
}

func New(workers int, logger *slog.Logger) *Matcher {
	if workers <= 0 {
		workers = 1
	}
	return &Matcher{
		workers: workers,
		logger:  logger.With("component", "matcher"),
	}
}

// Match produces one pair per (detector, interval) that has both an
// observation and a simulated value. Simulated flows with no physical
// detector are dropped; they carry no calibration signal. Matching is
// deterministic: detectors are processed independently (possibly in
// parallel) and results merged in canonical order.
func (m *Matcher) Match(
	ctx context.Context,
	ref *model.NetworkReference,
	observations *model.ObservationSet,
	flows *model.SimulatedFlowSet,
) (*Result, error) {
	byDetector := groupByDetector(observations.All())
	detectors := make([]model.DetectorID, 0, len(byDetector))
	for det := range byDetector {
		detectors = append(detectors, det)
	}
	sort.Slice(detectors, func(i, j int) bool { return detectors[i] < detectors[j] })

	results := make([]Result, len(detectors))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, det := range detectors {
		i, det := i, det
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = matchDetector(ref, det, byDetector[det], flows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Result{}
	for _, r := range results {
		merged.Pairs = append(merged.Pairs, r.Pairs...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
	}
	sortPairs(merged.Pairs)
	sortWarnings(merged.Warnings)

	metrics.MatchedPairs.WithLabelValues(ref.ID()).Set(float64(len(merged.Pairs)))
	for _, w := range merged.Warnings {
		metrics.MatchingWarnings.WithLabelValues(ref.ID(), string(w.Reason)).Inc()
	}
	if len(merged.Warnings) > 0 {
		m.logger.Warn("unmatched detector observations",
			"network", ref.ID(), "warnings", len(merged.Warnings), "pairs", len(merged.Pairs))
	}
	return merged, nil
}

func matchDetector(
	ref *model.NetworkReference,
	det model.DetectorID,
	observations []model.DetectorObservation,
	flows *model.SimulatedFlowSet,
) Result {
	var r Result
	section, known := ref.SectionOf(det)
	if !known {
		for _, obs := range observations {
			r.Warnings = append(r.Warnings, Warning{
				Detector: det, Section: obs.Section, Interval: obs.Interval,
				Reason: ReasonUnknownDetector,
			})
		}
		return r
	}
	for _, obs := range observations {
		sim, ok := flows.Flow(section, obs.Interval)
		if !ok {
			r.Warnings = append(r.Warnings, Warning{
				Detector: det, Section: section, Interval: obs.Interval,
				Reason: ReasonNoSimulatedFlow,
			})
			continue
		}
		r.Pairs = append(r.Pairs, model.MatchedPair{
			Detector:  det,
			Section:   section,
			Interval:  obs.Interval,
			Observed:  obs.Flow,
			Simulated: sim,
		})
	}
	return r
}

func groupByDetector(observations []model.DetectorObservation) map[model.DetectorID][]model.DetectorObservation {
	out := make(map[model.DetectorID][]model.DetectorObservation)
	for _, obs := range observations {
		out[obs.Detector] = append(out[obs.Detector], obs)
	}
	return out
}

func sortPairs(pairs []model.MatchedPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Detector != pairs[j].Detector {
			return pairs[i].Detector < pairs[j].Detector
		}
		return pairs[i].Interval < pairs[j].Interval
	})
}

func sortWarnings(warnings []Warning) {
	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Detector != warnings[j].Detector {
			return warnings[i].Detector < warnings[j].Detector
		}
		return warnings[i].Interval < warnings[j].Interval
	})
}
