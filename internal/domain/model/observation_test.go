package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestNewObservationSetSortsAndValidates(t *testing.T) {
	set, err := NewObservationSet([]DetectorObservation{
		{Detector: "d2", Section: "s2", Interval: 0, Flow: 80},
		{Detector: "d1", Section: "s1", Interval: 1, Flow: 120},
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 100, Occupancy: floatPtr(0.4)},
	})
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	all := set.All()
	assert.Equal(t, DetectorID("d1"), all[0].Detector)
	assert.Equal(t, 0, all[0].Interval)
	assert.Equal(t, DetectorID("d1"), all[1].Detector)
	assert.Equal(t, 1, all[1].Interval)
	assert.Equal(t, DetectorID("d2"), all[2].Detector)

	assert.Equal(t, []DetectorID{"d1", "d2"}, set.Detectors())
}

func TestNewObservationSetRejectsDuplicates(t *testing.T) {
	_, err := NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 100},
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 101},
	})
	require.Error(t, err)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestNewObservationSetRejectsBadValues(t *testing.T) {
	_, err := NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: -1},
	})
	assert.Error(t, err)

	_, err = NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 1, Occupancy: floatPtr(1.5)},
	})
	assert.Error(t, err)

	_, err = NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 1, Speed: floatPtr(-3)},
	})
	assert.Error(t, err)
}

func TestObservationSetEqual(t *testing.T) {
	a, err := NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 100, Occupancy: floatPtr(0.2)},
	})
	require.NoError(t, err)
	b, err := NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 100, Occupancy: floatPtr(0.2)},
	})
	require.NoError(t, err)
	c, err := NewObservationSet([]DetectorObservation{
		{Detector: "d1", Section: "s1", Interval: 0, Flow: 100},
	})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestSimulatedFlowSetLookup(t *testing.T) {
	flows, err := NewSimulatedFlowSet([]SimulatedFlow{
		{Section: "s1", Interval: 0, Flow: 90},
		{Section: "s1", Interval: 1, Flow: 95},
	})
	require.NoError(t, err)

	got, ok := flows.Flow("s1", 0)
	require.True(t, ok)
	assert.Equal(t, 90.0, got)

	_, ok = flows.Flow("s1", 2)
	assert.False(t, ok)
	_, ok = flows.Flow("s2", 0)
	assert.False(t, ok)

	_, err = NewSimulatedFlowSet([]SimulatedFlow{
		{Section: "s1", Interval: 0, Flow: 90},
		{Section: "s1", Interval: 0, Flow: 91},
	})
	assert.Error(t, err)
}
