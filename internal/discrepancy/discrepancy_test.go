package discrepancy

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
)

func TestGEH(t *testing.T) {
	tests := []struct {
		name      string
		simulated float64
		observed  float64
		want      float64
	}{
		{"perfect match", 100, 100, 0},
		{"both zero", 0, 0, 0},
		{"ten percent low", 90, 100, math.Sqrt(2.0 * 100.0 / 190.0)},
		{"symmetric", 100, 90, math.Sqrt(2.0 * 100.0 / 190.0)},
		{"simulated zero", 0, 50, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, geh(tt.simulated, tt.observed), 1e-12)
		})
	}
}

func TestEvaluateRequiresPairs(t *testing.T) {
	_, err := Evaluate(context.Background(), "net", nil, Options{})
	assert.Error(t, err)
}

func TestEvaluateScoreAndSummaries(t *testing.T) {
	pairs := []model.MatchedPair{
		{Detector: "d1", Section: "s1", Interval: 0, Observed: 100, Simulated: 90},
		{Detector: "d1", Section: "s1", Interval: 1, Observed: 100, Simulated: 100},
	}
	eval, err := Evaluate(context.Background(), "net", pairs, Options{Epsilon: 1, MinValidIntervals: 1})
	require.NoError(t, err)

	require.Len(t, eval.Pairs, 2)
	assert.Equal(t, -10.0, eval.Pairs[0].AbsError)
	assert.InDelta(t, -0.1, eval.Pairs[0].RelError, 1e-12)
	assert.InDelta(t, geh(90, 100), eval.Pairs[0].GEH, 1e-12)

	wantScore := geh(90, 100) / 2
	assert.InDelta(t, wantScore, eval.Score, 1e-12)
	assert.Equal(t, 2, eval.IncludedPairs)
	assert.InDelta(t, math.Sqrt(2*100)/200, eval.RMSN, 1e-12)

	require.Len(t, eval.Detectors, 1)
	d := eval.Detectors[0]
	assert.Equal(t, model.DetectorID("d1"), d.Detector)
	assert.Equal(t, 2, d.Intervals)
	assert.Equal(t, 100.0, d.MeanObserved)
	assert.Equal(t, 95.0, d.MeanSimulated)
	assert.False(t, d.Excluded)
}

func TestEvaluatePermutationIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var pairs []model.MatchedPair
	for d := 0; d < 5; d++ {
		for interval := 0; interval < 8; interval++ {
			pairs = append(pairs, model.MatchedPair{
				Detector:  model.DetectorID(string(rune('a' + d))),
				Section:   "s1",
				Interval:  interval,
				Observed:  100 + rng.Float64()*50,
				Simulated: 80 + rng.Float64()*60,
			})
		}
	}

	opts := Options{Epsilon: 1, MinValidIntervals: 2, Workers: 4}
	base, err := Evaluate(context.Background(), "net", pairs, opts)
	require.NoError(t, err)

	for trial := 0; trial < 5; trial++ {
		shuffled := make([]model.MatchedPair, len(pairs))
		copy(shuffled, pairs)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Evaluate(context.Background(), "net", shuffled, opts)
		require.NoError(t, err)
		assert.Equal(t, base.Score, got.Score)
		assert.Equal(t, base.RMSN, got.RMSN)
		assert.Equal(t, base.Pairs, got.Pairs)
		assert.Equal(t, base.Detectors, got.Detectors)
	}
}

func TestEvaluateExcludesSparseDetectors(t *testing.T) {
	pairs := []model.MatchedPair{
		{Detector: "rich", Interval: 0, Observed: 100, Simulated: 100},
		{Detector: "rich", Interval: 1, Observed: 100, Simulated: 100},
		{Detector: "rich", Interval: 2, Observed: 100, Simulated: 100},
		{Detector: "rich", Interval: 3, Observed: 100, Simulated: 100},
		{Detector: "sparse", Interval: 0, Observed: 100, Simulated: 10},
	}
	eval, err := Evaluate(context.Background(), "net", pairs, Options{Epsilon: 1, MinValidIntervals: 4})
	require.NoError(t, err)

	// The sparse detector's large error is flagged, not aggregated.
	assert.Equal(t, 0.0, eval.Score)
	assert.Equal(t, 4, eval.IncludedPairs)

	require.Len(t, eval.Detectors, 2)
	byName := map[model.DetectorID]model.DetectorSummary{}
	for _, d := range eval.Detectors {
		byName[d.Detector] = d
	}
	assert.False(t, byName["rich"].Excluded)
	assert.True(t, byName["sparse"].Excluded)
	assert.NotEmpty(t, byName["sparse"].ExcludeReason)
}

func TestEvaluateErrorsWhenAllDetectorsExcluded(t *testing.T) {
	// One matched interval against a two-interval minimum: the only
	// detector is excluded and there is nothing left to score.
	pairs := []model.MatchedPair{
		{Detector: "d1", Interval: 0, Observed: 100, Simulated: 50},
	}
	_, err := Evaluate(context.Background(), "net", pairs, Options{Epsilon: 1, MinValidIntervals: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable calibration signal")
}

func TestShortfallsSkipExcludedAndFlipSign(t *testing.T) {
	pairs := []model.MatchedPair{
		{Detector: "d1", Interval: 0, Observed: 100, Simulated: 90},
		{Detector: "d1", Interval: 1, Observed: 100, Simulated: 120},
		{Detector: "sparse", Interval: 0, Observed: 100, Simulated: 10},
	}
	eval, err := Evaluate(context.Background(), "net", pairs, Options{Epsilon: 1, MinValidIntervals: 2})
	require.NoError(t, err)

	shortfalls := eval.Shortfalls()
	require.Contains(t, shortfalls, model.DetectorID("d1"))
	assert.NotContains(t, shortfalls, model.DetectorID("sparse"))

	// Under-simulation yields a positive shortfall (demand should grow).
	assert.InDelta(t, 0.1, shortfalls["d1"][0], 1e-12)
	assert.InDelta(t, -0.2, shortfalls["d1"][1], 1e-12)
}

func TestZeroDiscrepancy(t *testing.T) {
	perfect := []model.MatchedPair{
		{Detector: "d1", Interval: 0, Observed: 100, Simulated: 100},
	}
	eval, err := Evaluate(context.Background(), "net", perfect, Options{})
	require.NoError(t, err)
	assert.True(t, eval.ZeroDiscrepancy())
	assert.Equal(t, 0.0, eval.Score)

	off := []model.MatchedPair{
		{Detector: "d1", Interval: 0, Observed: 100, Simulated: 99},
	}
	eval, err = Evaluate(context.Background(), "net", off, Options{})
	require.NoError(t, err)
	assert.False(t, eval.ZeroDiscrepancy())
}

func TestEvaluateEpsilonFloorsDenominator(t *testing.T) {
	pairs := []model.MatchedPair{
		{Detector: "d1", Interval: 0, Observed: 0, Simulated: 10},
	}
	eval, err := Evaluate(context.Background(), "net", pairs, Options{Epsilon: 5})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, eval.Pairs[0].RelError, 1e-12)
}
