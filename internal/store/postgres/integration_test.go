//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/johnlee-jh/traffic-microsimulation/internal/store/postgres"
)

func createRun(t *testing.T, s *postgres.Store) *model.CalibrationRun {
	t.Helper()
	run := &model.CalibrationRun{
		ID:        uuid.New(),
		NetworkID: "fremont-v5",
		State:     model.RunStateInit,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateRun(context.Background(), run))
	return run
}

func TestMatrixRoundTrip(t *testing.T) {
	db := setupTestContainer(t)
	s := postgres.NewStore(db)
	ctx := context.Background()
	run := createRun(t, s)

	m, err := model.NewODMatrix(2, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 105.00000000000001},
		{Origin: "a", Destination: "b", Interval: 1, Demand: 1.0 / 3.0},
		{Origin: "b", Destination: "a", Interval: 0, Demand: 42},
	})
	require.NoError(t, err)

	require.NoError(t, s.SaveMatrix(ctx, run.ID, 0, m))

	loaded, err := s.LoadMatrix(ctx, run.ID, 0)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(m), "matrix must survive the round trip bit for bit")

	_, err = s.LoadMatrix(ctx, run.ID, 7)
	assert.Error(t, err)
}

func TestMatrixOverwriteSameIteration(t *testing.T) {
	db := setupTestContainer(t)
	s := postgres.NewStore(db)
	ctx := context.Background()
	run := createRun(t, s)

	first, err := model.NewODMatrix(1, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 100},
	})
	require.NoError(t, err)
	second, err := model.NewODMatrix(1, []model.ODCell{
		{Origin: "a", Destination: "b", Interval: 0, Demand: 105},
	})
	require.NoError(t, err)

	require.NoError(t, s.SaveMatrix(ctx, run.ID, 3, first))
	require.NoError(t, s.SaveMatrix(ctx, run.ID, 3, second))

	loaded, err := s.LoadMatrix(ctx, run.ID, 3)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(second))
}

func TestObservationsRoundTrip(t *testing.T) {
	db := setupTestContainer(t)
	s := postgres.NewStore(db)
	ctx := context.Background()
	run := createRun(t, s)

	occupancy := 0.31
	speed := 88.5
	set, err := model.NewObservationSet([]model.DetectorObservation{
		{Detector: "402113", Section: "s1", Interval: 0, Flow: 120, Occupancy: &occupancy, Speed: &speed},
		{Detector: "402113", Section: "s1", Interval: 1, Flow: 98},
		{Detector: "402120", Section: "s2", Interval: 0, Flow: 55},
	})
	require.NoError(t, err)

	require.NoError(t, s.SaveObservations(ctx, run.ID, set))

	loaded, err := s.LoadObservations(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(set))
}

func TestRunLifecycle(t *testing.T) {
	db := setupTestContainer(t)
	s := postgres.NewStore(db)
	ctx := context.Background()
	run := createRun(t, s)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "fremont-v5", got.NetworkID)
	assert.Equal(t, model.RunStateInit, got.State)

	require.NoError(t, s.UpdateRunState(ctx, run.ID, model.RunStateRunning))
	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStateRunning, got.State)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	_, err = s.GetRun(ctx, uuid.New())
	assert.Error(t, err)
}

func TestIterationHistory(t *testing.T) {
	db := setupTestContainer(t)
	s := postgres.NewStore(db)
	ctx := context.Background()
	run := createRun(t, s)

	history, err := s.Iterations(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, fitness := range []float64{1.026, 0.558, 0.292} {
		require.NoError(t, s.AppendIteration(ctx, model.IterationSummary{
			RunID:        run.ID,
			Iteration:    i,
			Fitness:      fitness,
			RMSN:         fitness / 10,
			MeanRelError: fitness / 20,
			MatchedPairs: 4,
			WarningCount: i,
			TotalDemand:  100 + float64(i)*5,
			SimulateMS:   1200,
			StartedAt:    now,
			FinishedAt:   now.Add(time.Second),
		}))
	}

	history, err = s.Iterations(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, summary := range history {
		assert.Equal(t, i, summary.Iteration)
	}
	assert.Equal(t, 1.026, history[0].Fitness)
	assert.Equal(t, 0.292, history[2].Fitness)
	assert.Equal(t, int64(1200), history[1].SimulateMS)
}

func TestReportRoundTrip(t *testing.T) {
	db := setupTestContainer(t)
	s := postgres.NewStore(db)
	ctx := context.Background()
	run := createRun(t, s)

	report := &model.CalibrationReport{
		RunID:             run.ID,
		NetworkID:         "fremont-v5",
		State:             model.RunStateConverged,
		AcceptedIteration: 2,
		AcceptedFitness:   0.292,
		TotalDemand:       []float64{105, 84},
		Detectors: []model.DetectorSummary{
			{Detector: "402113", Intervals: 2, MeanObserved: 109, MeanSimulated: 104.5, GEH: 0.44},
		},
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.SaveReport(ctx, report))

	loaded, err := s.LoadReport(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, report.AcceptedIteration, loaded.AcceptedIteration)
	assert.Equal(t, report.AcceptedFitness, loaded.AcceptedFitness)
	assert.Equal(t, report.TotalDemand, loaded.TotalDemand)
	require.Len(t, loaded.Detectors, 1)
	assert.Equal(t, model.DetectorID("402113"), loaded.Detectors[0].Detector)

	// Saving again upserts rather than failing.
	report.State = model.RunStateDone
	require.NoError(t, s.SaveReport(ctx, report))
	loaded, err = s.LoadReport(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStateDone, loaded.State)

	_, err = s.LoadReport(ctx, uuid.New())
	assert.Error(t, err)
}
