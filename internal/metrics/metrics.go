package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calibration loop counters and histograms, partitioned by network.

var (
	// Controller
	IterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "controller",
		Name:      "iterations_total",
		Help:      "Total completed calibration iterations",
	}, []string{"network"})

	FitnessScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "calibration",
		Subsystem: "controller",
		Name:      "fitness_score",
		Help:      "Latest iteration fitness score (lower is better)",
	}, []string{"network"})

	BestFitnessScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "calibration",
		Subsystem: "controller",
		Name:      "best_fitness_score",
		Help:      "Best fitness score seen in the run",
	}, []string{"network"})

	RunsTerminated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "controller",
		Name:      "runs_terminated_total",
		Help:      "Runs terminated, by terminal state",
	}, []string{"network", "state"})

	IterationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calibration",
		Subsystem: "controller",
		Name:      "iteration_duration_seconds",
		Help:      "Full iteration duration including the simulator call",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"network"})

	// Simulator boundary
	SimulateCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "simulator",
		Name:      "calls_total",
		Help:      "Simulator invocations, by status",
	}, []string{"network", "status"})

	SimulateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calibration",
		Subsystem: "simulator",
		Name:      "call_duration_seconds",
		Help:      "Simulator call duration",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"network"})

	SimulateRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "simulator",
		Name:      "rate_limit_waits_total",
		Help:      "Simulator calls delayed by the rate limiter",
	}, []string{"network"})

	// Matcher
	MatchedPairs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "calibration",
		Subsystem: "matcher",
		Name:      "matched_pairs",
		Help:      "Matched (observation, simulated) pairs in the latest iteration",
	}, []string{"network"})

	MatchingWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "matcher",
		Name:      "warnings_total",
		Help:      "Detectors observed but not matched to a simulated flow",
	}, []string{"network", "reason"})

	// Discrepancy model
	ExcludedDetectors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "calibration",
		Subsystem: "discrepancy",
		Name:      "excluded_detectors",
		Help:      "Detectors excluded from aggregation in the latest iteration",
	}, []string{"network"})

	// Adjustment engine
	AdjustedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "adjust",
		Name:      "cells_adjusted_total",
		Help:      "OD cells rewritten by the adjustment engine",
	}, []string{"network"})

	ClampedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "adjust",
		Name:      "cells_clamped_total",
		Help:      "OD cells whose adjustment hit the per-iteration change cap",
	}, []string{"network"})

	// Storage
	PersistDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calibration",
		Subsystem: "store",
		Name:      "persist_duration_seconds",
		Help:      "Duration of matrix/summary persistence per iteration",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15},
	}, []string{"network", "artifact"})

	// Alerts
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Alerts dispatched, by channel and type",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calibration",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Alerts suppressed by cooldown",
	}, []string{"channel", "type"})
)
