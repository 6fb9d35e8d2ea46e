package adjust

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnlee-jh/traffic-microsimulation/internal/discrepancy"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func evaluate(t *testing.T, pairs []model.MatchedPair) *discrepancy.Evaluation {
	t.Helper()
	eval, err := discrepancy.Evaluate(context.Background(), "net", pairs, discrepancy.Options{Epsilon: 1})
	require.NoError(t, err)
	return eval
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Alpha: 0, MaxChangeRatio: 0.25}, nil, testLogger())
	assert.Error(t, err)
	_, err = New(Options{Alpha: 1.5, MaxChangeRatio: 0.25}, nil, testLogger())
	assert.Error(t, err)
	_, err = New(Options{Alpha: 0.5, MaxChangeRatio: 0}, nil, testLogger())
	assert.Error(t, err)
}

// With one detector reading 100 against a simulated 90, the relative
// shortfall is 0.1; damped by alpha 0.5 the 100-vehicle cell becomes 105.
func TestAdjustDampedProportionalStep(t *testing.T) {
	engine, err := New(Options{Alpha: 0.5, MaxChangeRatio: 0.25}, nil, testLogger())
	require.NoError(t, err)

	current, err := model.NewODMatrix(1, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 100},
	})
	require.NoError(t, err)

	eval := evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 100, Simulated: 90},
	})

	next, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.InDelta(t, 105, next.Demand("a", "b", 0), 1e-9)
}

func TestAdjustZeroDiscrepancyIsFixedPoint(t *testing.T) {
	engine, err := New(Options{Alpha: 0.5, MaxChangeRatio: 0.25}, nil, testLogger())
	require.NoError(t, err)

	current, err := model.NewODMatrix(2, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 100},
		{Origin: "b", Destination: "a", Interval: 1, Demand: 40},
	})
	require.NoError(t, err)

	eval := evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 90, Simulated: 90},
		{Detector: "d1", Section: "s1", Interval: 1, Observed: 36, Simulated: 36},
	})
	require.True(t, eval.ZeroDiscrepancy())

	next, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.True(t, next.Equal(current))
}

func TestAdjustClampsLargeSignals(t *testing.T) {
	engine, err := New(Options{Alpha: 1, MaxChangeRatio: 0.25}, nil, testLogger())
	require.NoError(t, err)

	current, err := model.NewODMatrix(1, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 100},
	})
	require.NoError(t, err)

	// Simulated is a tenth of observed: raw signal 0.9, clipped to 0.25.
	eval := evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 100, Simulated: 10},
	})
	next, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.InDelta(t, 125, next.Demand("a", "b", 0), 1e-9)

	// Heavy over-simulation clips downward the same way.
	eval = evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 10, Simulated: 100},
	})
	next, err = engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.InDelta(t, 75, next.Demand("a", "b", 0), 1e-9)
}

func TestAdjustNeverProducesNegativeDemand(t *testing.T) {
	// Alpha 1 with an unclipped-looking ratio still cannot push a cell
	// below zero: the bound caps the relative change at alpha*maxChange.
	engine, err := New(Options{Alpha: 1, MaxChangeRatio: 0.99}, nil, testLogger())
	require.NoError(t, err)

	current, err := model.NewODMatrix(1, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 0.5},
	})
	require.NoError(t, err)

	eval := evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 1, Simulated: 500},
	})
	next, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, next.Demand("a", "b", 0), 0.0)
}

func TestAdjustIntervalsAreIndependent(t *testing.T) {
	engine, err := New(Options{Alpha: 0.5, MaxChangeRatio: 0.25}, nil, testLogger())
	require.NoError(t, err)

	current, err := model.NewODMatrix(2, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 100},
		{Origin: "a", Destination: "b", Interval: 1, Demand: 100},
	})
	require.NoError(t, err)

	// Only interval 0 has a discrepancy; interval 1 matches exactly.
	eval := evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 100, Simulated: 90},
		{Detector: "d1", Section: "s1", Interval: 1, Observed: 90, Simulated: 90},
	})
	next, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.InDelta(t, 105, next.Demand("a", "b", 0), 1e-9)
	assert.InDelta(t, 100, next.Demand("a", "b", 1), 1e-9)
}

func TestAdjustAssignmentWeights(t *testing.T) {
	weights := Weights{
		"d1": {model.ODPair{Origin: "a", Destination: "b"}: 1},
		"d2": {model.ODPair{Origin: "b", Destination: "a"}: 1},
	}
	engine, err := New(Options{Alpha: 1, MaxChangeRatio: 0.5}, weights, testLogger())
	require.NoError(t, err)

	current, err := model.NewODMatrix(1, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 100},
		{Origin: "b", Destination: "a", Interval: 0, Demand: 100},
	})
	require.NoError(t, err)

	// d1 wants more demand, d2 wants less; each pair only listens to its
	// assigned detector.
	eval := evaluate(t, []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 100, Simulated: 80},
		{Detector: "d2", Section: "s2", Interval: 0, Observed: 80, Simulated: 100},
	})
	next, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	assert.InDelta(t, 120, next.Demand("a", "b", 0), 1e-9)
	assert.InDelta(t, 75, next.Demand("b", "a", 0), 1e-9)
}

func TestAdjustDeterministic(t *testing.T) {
	engine, err := New(Options{Alpha: 0.5, MaxChangeRatio: 0.25}, nil, testLogger())
	require.NoError(t, err)

	var cells []model.ODCell
	for i := 0; i < 10; i++ {
		cells = append(cells, model.ODCell{
			Origin: "a", Destination: model.CentroidID(string(rune('b' + i))),
			Interval: 0, Demand: float64(50 + i),
		})
	}
	current, err := model.NewODMatrix(1, cells)
	require.NoError(t, err)

	var pairs []model.MatchedPair
	for i := 0; i < 6; i++ {
		pairs = append(pairs, model.MatchedPair{
			Detector: model.DetectorID(string(rune('p' + i))), Section: "s1",
			Interval: 0, Observed: float64(100 + 7*i), Simulated: float64(91 + 5*i),
		})
	}
	eval := evaluate(t, pairs)

	base, err := engine.Adjust("net", current, eval)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := engine.Adjust("net", current, eval)
		require.NoError(t, err)
		assert.True(t, base.Equal(got), "run %d differs", i)
	}
}
