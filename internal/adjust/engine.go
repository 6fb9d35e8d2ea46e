// Package adjust produces the next iteration's OD matrix from the current
// matrix and the discrepancy signal.
package adjust

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/johnlee-jh/traffic-microsimulation/internal/discrepancy"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/johnlee-jh/traffic-microsimulation/internal/metrics"
)

// Options tunes the proportional adjustment rule.
type Options struct {
	// Alpha is the damping factor in (0,1]: the fraction of the computed
	// adjustment applied per iteration.
	Alpha float64
	// MaxChangeRatio clips the per-iteration adjustment signal, bounding
	// each cell's relative change to Alpha*MaxChangeRatio.
	MaxChangeRatio float64
}

// Weights gives, per detector, the assignment proportion of each OD pair's
// demand observed at that detector. Nil weights fall back to uniform
// weighting: every detector's discrepancy contributes equally to every pair.
type Weights map[model.DetectorID]map[model.ODPair]float64

// Engine applies the damped proportional adjustment family
// new = demand * (1 + alpha * clamp(signal, +-maxChange)), floored at zero.
type Engine struct {
	opts    Options
	weights Weights
	logger  *slog.Logger
}

func New(opts Options, weights Weights, logger *slog.Logger) (*Engine, error) {
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		return nil, fmt.Errorf("damping factor must be in (0,1], got %g", opts.Alpha)
	}
	if opts.MaxChangeRatio <= 0 {
		return nil, fmt.Errorf("max change ratio must be positive, got %g", opts.MaxChangeRatio)
	}
	return &Engine{
		opts:    opts,
		weights: weights,
		logger:  logger.With("component", "adjust"),
	}, nil
}

// Adjust returns a new matrix scaled toward the observed flows. Zero
// discrepancy returns a matrix equal to the input (fixed point). The result
// never contains a negative cell regardless of the discrepancy signal.
func (e *Engine) Adjust(networkID string, current *model.ODMatrix, eval *discrepancy.Evaluation) (*model.ODMatrix, error) {
	shortfalls := sortedShortfalls(eval.Shortfalls())

	cells := current.Cells()
	adjusted := make([]model.ODCell, 0, len(cells))
	clamped := 0
	for _, c := range cells {
		pair := model.ODPair{Origin: c.Origin, Destination: c.Destination}
		signal := e.signal(pair, c.Interval, shortfalls)
		bounded := signal
		if bounded > e.opts.MaxChangeRatio {
			bounded = e.opts.MaxChangeRatio
			clamped++
		} else if bounded < -e.opts.MaxChangeRatio {
			bounded = -e.opts.MaxChangeRatio
			clamped++
		}
		demand := c.Demand * (1 + e.opts.Alpha*bounded)
		if demand < 0 {
			demand = 0
		}
		adjusted = append(adjusted, model.ODCell{
			Origin:      c.Origin,
			Destination: c.Destination,
			Interval:    c.Interval,
			Demand:      demand,
		})
	}

	next, err := model.NewODMatrix(current.Intervals(), adjusted)
	if err != nil {
		return nil, fmt.Errorf("build adjusted matrix: %w", err)
	}

	metrics.AdjustedCells.WithLabelValues(networkID).Add(float64(len(adjusted)))
	if clamped > 0 {
		metrics.ClampedCells.WithLabelValues(networkID).Add(float64(clamped))
		e.logger.Debug("adjustment clipped", "network", networkID, "cells", clamped)
	}
	return next, nil
}

// detectorShortfalls is one detector's shortfall per interval, kept in a
// detector-sorted slice so the weighted sum below is order-stable.
type detectorShortfalls struct {
	detector   model.DetectorID
	byInterval map[int]float64
}

func sortedShortfalls(m map[model.DetectorID]map[int]float64) []detectorShortfalls {
	out := make([]detectorShortfalls, 0, len(m))
	for det, byInterval := range m {
		out = append(out, detectorShortfalls{detector: det, byInterval: byInterval})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].detector < out[j].detector })
	return out
}

// signal is the weighted mean detector shortfall for one OD cell. Detector
// shortfall (obs-sim)/max(obs,eps) at the cell's interval is weighted by the
// assignment proportion of the pair at that detector; uniform when no
// assignment matrix is configured.
func (e *Engine) signal(pair model.ODPair, interval int, shortfalls []detectorShortfalls) float64 {
	var weighted, total float64
	for _, d := range shortfalls {
		shortfall, ok := d.byInterval[interval]
		if !ok {
			continue
		}
		w := e.weight(d.detector, pair)
		if w <= 0 {
			continue
		}
		weighted += w * shortfall
		total += w
	}
	if total == 0 {
		return 0
	}
	signal := weighted / total
	if math.IsNaN(signal) || math.IsInf(signal, 0) {
		return 0
	}
	return signal
}

func (e *Engine) weight(det model.DetectorID, pair model.ODPair) float64 {
	if e.weights == nil {
		return 1
	}
	return e.weights[det][pair]
}
