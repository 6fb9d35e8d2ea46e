package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWindowStep = 15 * time.Minute

func testWindowStart(t *testing.T) time.Time {
	t.Helper()
	start, err := time.Parse(time.RFC3339, "2021-03-02T14:00:00Z")
	require.NoError(t, err)
	return start
}

func TestWindowIntervalOf(t *testing.T) {
	start := testWindowStart(t)
	window, err := NewWindow(start, testWindowStep, 4)
	require.NoError(t, err)

	tests := []struct {
		name    string
		ts      time.Time
		want    int
		aligned bool
	}{
		{"window start", start, 0, true},
		{"second interval", start.Add(15 * time.Minute), 1, true},
		{"last interval", start.Add(45 * time.Minute), 3, true},
		{"past the window", start.Add(60 * time.Minute), 0, false},
		{"before the window", start.Add(-15 * time.Minute), 0, false},
		{"off the step grid", start.Add(7 * time.Minute), 0, false},
		{"off by a second", start.Add(15*time.Minute + time.Second), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, aligned := window.IntervalOf(tt.ts)
			assert.Equal(t, tt.aligned, aligned)
			if tt.aligned {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	window, err := NewWindow(testWindowStart(t), testWindowStep, 4)
	require.NoError(t, err)

	assert.True(t, window.Contains(0))
	assert.True(t, window.Contains(3))
	assert.False(t, window.Contains(4))
	assert.False(t, window.Contains(-1))
}

func TestNewWindowValidation(t *testing.T) {
	start := testWindowStart(t)

	_, err := NewWindow(time.Time{}, testWindowStep, 4)
	assert.Error(t, err)

	_, err = NewWindow(start, 0, 4)
	assert.Error(t, err)

	_, err = NewWindow(start, testWindowStep, 0)
	assert.Error(t, err)
}

func TestNewNetworkReference(t *testing.T) {
	window, err := NewWindow(testWindowStart(t), testWindowStep, 4)
	require.NoError(t, err)

	ref, err := NewNetworkReference("fremont-v5",
		[]CentroidID{"ext_2", "ext_1"},
		[]SectionID{"s1", "s2"},
		map[DetectorID]SectionID{"d2": "s2", "d1": "s1"},
		window)
	require.NoError(t, err)

	assert.Equal(t, "fremont-v5", ref.ID())
	assert.True(t, ref.HasCentroid("ext_1"))
	assert.False(t, ref.HasCentroid("ext_3"))
	assert.True(t, ref.HasSection("s1"))

	sec, ok := ref.SectionOf("d1")
	require.True(t, ok)
	assert.Equal(t, SectionID("s1"), sec)
	_, ok = ref.SectionOf("unknown")
	assert.False(t, ok)

	assert.Equal(t, []CentroidID{"ext_1", "ext_2"}, ref.Centroids())
	assert.Equal(t, []DetectorID{"d1", "d2"}, ref.Detectors())
	assert.Equal(t, 2, ref.NumCentroids())
}

func TestNewNetworkReferenceRejectsDanglingDetector(t *testing.T) {
	window, err := NewWindow(testWindowStart(t), testWindowStep, 4)
	require.NoError(t, err)

	_, err = NewNetworkReference("net",
		[]CentroidID{"a"},
		[]SectionID{"s1"},
		map[DetectorID]SectionID{"d1": "missing"},
		window)
	require.Error(t, err)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
