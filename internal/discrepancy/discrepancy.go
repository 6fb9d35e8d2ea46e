// Package discrepancy computes normalized simulated-vs-observed errors and
// the aggregate goodness-of-fit score used to accept or reject an iteration.
package discrepancy

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/johnlee-jh/traffic-microsimulation/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Options configures the error model.
type Options struct {
	// Epsilon floors the observed flow in relative-error denominators.
	Epsilon float64
	// MinValidIntervals excludes detectors with fewer matched intervals
	// from aggregation; they are flagged, not dropped silently.
	MinValidIntervals int
	// Workers bounds parallel per-pair computation. Parallelism never
	// affects the score: pairs are re-sorted into canonical order first
	// and aggregated sequentially.
	Workers int
}

func (o Options) withDefaults() Options {
	if o.Epsilon <= 0 {
		o.Epsilon = 1
	}
	if o.MinValidIntervals <= 0 {
		o.MinValidIntervals = 1
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// PairError is one matched pair with its error signals.
type PairError struct {
	model.MatchedPair
	AbsError float64 // simulated - observed
	RelError float64 // (simulated - observed) / max(observed, epsilon)
	GEH      float64
}

// Evaluation aggregates an iteration's discrepancies. Score is the mean GEH
// over all pairs of included detectors: lower is better, zero is a perfect
// match, and the value is independent of input ordering.
type Evaluation struct {
	Pairs         []PairError
	Detectors     []model.DetectorSummary
	Score         float64
	RMSN          float64
	MeanRelError  float64
	IncludedPairs int
}

// ZeroDiscrepancy reports whether every matched pair agrees exactly, the
// adjustment engine's fixed-point condition.
func (e *Evaluation) ZeroDiscrepancy() bool {
	for _, p := range e.Pairs {
		if p.AbsError != 0 {
			return false
		}
	}
	return true
}

// Shortfalls returns, per (detector, interval) of included detectors, the
// observed-minus-simulated relative error the adjustment engine consumes.
func (e *Evaluation) Shortfalls() map[model.DetectorID]map[int]float64 {
	excluded := make(map[model.DetectorID]bool, len(e.Detectors))
	for _, d := range e.Detectors {
		excluded[d.Detector] = d.Excluded
	}
	out := make(map[model.DetectorID]map[int]float64)
	for _, p := range e.Pairs {
		if excluded[p.Detector] {
			continue
		}
		byInterval := out[p.Detector]
		if byInterval == nil {
			byInterval = make(map[int]float64)
			out[p.Detector] = byInterval
		}
		byInterval[p.Interval] = -p.RelError
	}
	return out
}

// Evaluate computes pair errors, per-detector summaries, and the aggregate
// score for one iteration's matched pairs.
func Evaluate(ctx context.Context, networkID string, pairs []model.MatchedPair, opts Options) (*Evaluation, error) {
	opts = opts.withDefaults()
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no matched pairs to evaluate")
	}

	// Canonical order first so the result never depends on input ordering
	// or on how work is split across workers.
	ordered := make([]model.MatchedPair, len(pairs))
	copy(ordered, pairs)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Detector != ordered[j].Detector {
			return ordered[i].Detector < ordered[j].Detector
		}
		return ordered[i].Interval < ordered[j].Interval
	})

	errsOut := make([]PairError, len(ordered))
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(ordered) + opts.Workers - 1) / opts.Workers
	for start := 0; start < len(ordered); start += chunk {
		start := start
		end := min(start+chunk, len(ordered))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				errsOut[i] = pairError(ordered[i], opts.Epsilon)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eval := &Evaluation{Pairs: errsOut}
	eval.Detectors = summarize(errsOut, opts.MinValidIntervals)
	aggregate(eval)

	metrics.ExcludedDetectors.WithLabelValues(networkID).Set(float64(countExcluded(eval.Detectors)))

	// A score over zero included pairs would read as perfect convergence.
	if eval.IncludedPairs == 0 {
		return nil, fmt.Errorf("all %d detectors excluded from aggregation, no usable calibration signal", len(eval.Detectors))
	}
	return eval, nil
}

func pairError(p model.MatchedPair, epsilon float64) PairError {
	abs := p.Simulated - p.Observed
	rel := abs / math.Max(p.Observed, epsilon)
	return PairError{
		MatchedPair: p,
		AbsError:    abs,
		RelError:    rel,
		GEH:         geh(p.Simulated, p.Observed),
	}
}

// geh is the GEH statistic, the traffic-engineering standard for comparing
// simulated and observed flows: sqrt(2*(s-o)^2/(s+o)).
func geh(simulated, observed float64) float64 {
	sum := simulated + observed
	if sum == 0 {
		return 0
	}
	d := simulated - observed
	return math.Sqrt(2 * d * d / sum)
}

// summarize groups pair errors by detector. Input must already be in
// canonical (detector, interval) order.
func summarize(pairs []PairError, minIntervals int) []model.DetectorSummary {
	var out []model.DetectorSummary
	for start := 0; start < len(pairs); {
		end := start
		for end < len(pairs) && pairs[end].Detector == pairs[start].Detector {
			end++
		}
		group := pairs[start:end]
		s := model.DetectorSummary{
			Detector:  group[0].Detector,
			Intervals: len(group),
		}
		for _, p := range group {
			s.MeanObserved += p.Observed
			s.MeanSimulated += p.Simulated
			s.MeanAbsError += p.AbsError
			s.MeanRelError += p.RelError
			s.GEH += p.GEH
		}
		n := float64(len(group))
		s.MeanObserved /= n
		s.MeanSimulated /= n
		s.MeanAbsError /= n
		s.MeanRelError /= n
		s.GEH /= n
		if len(group) < minIntervals {
			s.Excluded = true
			s.ExcludeReason = fmt.Sprintf("only %d of %d required valid intervals", len(group), minIntervals)
		}
		out = append(out, s)
		start = end
	}
	return out
}

func aggregate(eval *Evaluation) {
	excluded := make(map[model.DetectorID]bool, len(eval.Detectors))
	for _, d := range eval.Detectors {
		excluded[d.Detector] = d.Excluded
	}

	var (
		gehSum, relSum, sqSum, obsSum float64
		n                             int
	)
	for _, p := range eval.Pairs {
		if excluded[p.Detector] {
			continue
		}
		gehSum += p.GEH
		relSum += p.RelError
		sqSum += p.AbsError * p.AbsError
		obsSum += p.Observed
		n++
	}
	eval.IncludedPairs = n
	if n == 0 {
		return
	}
	eval.Score = gehSum / float64(n)
	eval.MeanRelError = relSum / float64(n)
	if obsSum > 0 {
		eval.RMSN = math.Sqrt(float64(n)*sqSum) / obsSum
	}
}

func countExcluded(summaries []model.DetectorSummary) int {
	n := 0
	for _, s := range summaries {
		if s.Excluded {
			n++
		}
	}
	return n
}
