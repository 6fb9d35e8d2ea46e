package model

import (
	"sort"
	"time"
)

type CentroidID string

type SectionID string

type DetectorID string

// Window describes the simulation reporting window: Count intervals of Step
// duration starting at Start. Intervals are addressed by index 0..Count-1.
type Window struct {
	Start time.Time
	Step  time.Duration
	Count int
}

func NewWindow(start time.Time, step time.Duration, count int) (Window, error) {
	if start.IsZero() {
		return Window{}, validationErr("window", "start", "must be set")
	}
	if step <= 0 {
		return Window{}, validationErr("window", "step", "must be positive, got %s", step)
	}
	if count <= 0 {
		return Window{}, validationErr("window", "count", "must be positive, got %d", count)
	}
	return Window{Start: start, Step: step, Count: count}, nil
}

// IntervalOf maps a timestamp to its interval index. The second return is
// false when the timestamp does not fall exactly on a step boundary inside
// the window; misaligned measurements are excluded, never coerced.
func (w Window) IntervalOf(ts time.Time) (int, bool) {
	offset := ts.Sub(w.Start)
	if offset < 0 || offset%w.Step != 0 {
		return 0, false
	}
	idx := int(offset / w.Step)
	if idx >= w.Count {
		return 0, false
	}
	return idx, true
}

// Contains reports whether idx is a valid interval index for the window.
func (w Window) Contains(idx int) bool {
	return idx >= 0 && idx < w.Count
}

// NetworkReference identifies the network a calibration run operates on:
// the centroid set, the monitored sections, and the detector placement.
// Immutable for the duration of a run.
type NetworkReference struct {
	id               string
	centroids        map[CentroidID]struct{}
	sections         map[SectionID]struct{}
	detectorSections map[DetectorID]SectionID
	window           Window
}

func NewNetworkReference(
	id string,
	centroids []CentroidID,
	sections []SectionID,
	detectorSections map[DetectorID]SectionID,
	window Window,
) (*NetworkReference, error) {
	if id == "" {
		return nil, validationErr("network_reference", "id", "must be set")
	}
	if len(centroids) == 0 {
		return nil, validationErr("network_reference", "centroids", "must not be empty")
	}
	if window.Count == 0 {
		return nil, validationErr("network_reference", "window", "must be set")
	}

	centroidSet := make(map[CentroidID]struct{}, len(centroids))
	for _, c := range centroids {
		if c == "" {
			return nil, validationErr("network_reference", "centroids", "empty centroid id")
		}
		centroidSet[c] = struct{}{}
	}
	sectionSet := make(map[SectionID]struct{}, len(sections))
	for _, s := range sections {
		if s == "" {
			return nil, validationErr("network_reference", "sections", "empty section id")
		}
		sectionSet[s] = struct{}{}
	}
	detSections := make(map[DetectorID]SectionID, len(detectorSections))
	for det, sec := range detectorSections {
		if det == "" {
			return nil, validationErr("network_reference", "detectors", "empty detector id")
		}
		if _, ok := sectionSet[sec]; !ok {
			return nil, validationErr("network_reference", "detectors",
				"detector %s references unknown section %s", det, sec)
		}
		detSections[det] = sec
	}

	return &NetworkReference{
		id:               id,
		centroids:        centroidSet,
		sections:         sectionSet,
		detectorSections: detSections,
		window:           window,
	}, nil
}

func (n *NetworkReference) ID() string { return n.id }

func (n *NetworkReference) Window() Window { return n.window }

func (n *NetworkReference) HasCentroid(c CentroidID) bool {
	_, ok := n.centroids[c]
	return ok
}

func (n *NetworkReference) HasSection(s SectionID) bool {
	_, ok := n.sections[s]
	return ok
}

// SectionOf returns the section a detector sits on. The second return is
// false for detectors unknown to the network.
func (n *NetworkReference) SectionOf(det DetectorID) (SectionID, bool) {
	sec, ok := n.detectorSections[det]
	return sec, ok
}

// Centroids returns the centroid set in sorted order.
func (n *NetworkReference) Centroids() []CentroidID {
	out := make([]CentroidID, 0, len(n.centroids))
	for c := range n.centroids {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Detectors returns the detector set in sorted order.
func (n *NetworkReference) Detectors() []DetectorID {
	out := make([]DetectorID, 0, len(n.detectorSections))
	for d := range n.detectorSections {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (n *NetworkReference) NumCentroids() int { return len(n.centroids) }
