package model

import "sort"

// DetectorObservation is one field measurement: observed flow (vehicles per
// interval) at a detector during one time interval, optionally with
// occupancy and speed.
type DetectorObservation struct {
	Detector  DetectorID
	Section   SectionID
	Interval  int
	Flow      float64
	Occupancy *float64
	Speed     *float64
}

func NewDetectorObservation(det DetectorID, sec SectionID, interval int, flow float64) (DetectorObservation, error) {
	if det == "" {
		return DetectorObservation{}, validationErr("detector_observation", "detector", "must be set")
	}
	if sec == "" {
		return DetectorObservation{}, validationErr("detector_observation", "section", "must be set")
	}
	if interval < 0 {
		return DetectorObservation{}, validationErr("detector_observation", "interval", "must be non-negative, got %d", interval)
	}
	if flow < 0 {
		return DetectorObservation{}, validationErr("detector_observation", "flow",
			"must be non-negative, got %g for detector %s", flow, det)
	}
	return DetectorObservation{Detector: det, Section: sec, Interval: interval, Flow: flow}, nil
}

// ObservationSet holds the detector observations for one validation window,
// at most one per (detector, interval).
type ObservationSet struct {
	observations []DetectorObservation
}

func NewObservationSet(observations []DetectorObservation) (*ObservationSet, error) {
	type obsKey struct {
		det      DetectorID
		interval int
	}
	seen := make(map[obsKey]struct{}, len(observations))
	out := make([]DetectorObservation, 0, len(observations))
	for _, o := range observations {
		checked, err := NewDetectorObservation(o.Detector, o.Section, o.Interval, o.Flow)
		if err != nil {
			return nil, err
		}
		checked.Occupancy = o.Occupancy
		checked.Speed = o.Speed
		if checked.Occupancy != nil && (*checked.Occupancy < 0 || *checked.Occupancy > 1) {
			return nil, validationErr("detector_observation", "occupancy",
				"must be in [0,1], got %g for detector %s", *checked.Occupancy, o.Detector)
		}
		if checked.Speed != nil && *checked.Speed < 0 {
			return nil, validationErr("detector_observation", "speed",
				"must be non-negative, got %g for detector %s", *checked.Speed, o.Detector)
		}
		key := obsKey{o.Detector, o.Interval}
		if _, dup := seen[key]; dup {
			return nil, validationErr("observation_set", "",
				"duplicate observation for detector %s interval %d", o.Detector, o.Interval)
		}
		seen[key] = struct{}{}
		out = append(out, checked)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Detector != out[j].Detector {
			return out[i].Detector < out[j].Detector
		}
		return out[i].Interval < out[j].Interval
	})
	return &ObservationSet{observations: out}, nil
}

// All returns the observations sorted by (detector, interval).
func (s *ObservationSet) All() []DetectorObservation {
	out := make([]DetectorObservation, len(s.observations))
	copy(out, s.observations)
	return out
}

func (s *ObservationSet) Len() int { return len(s.observations) }

// Detectors returns the distinct detectors present, sorted.
func (s *ObservationSet) Detectors() []DetectorID {
	seen := make(map[DetectorID]struct{})
	out := make([]DetectorID, 0)
	for _, o := range s.observations {
		if _, ok := seen[o.Detector]; !ok {
			seen[o.Detector] = struct{}{}
			out = append(out, o.Detector)
		}
	}
	return out
}

// Equal reports field-for-field equality of two observation sets.
func (s *ObservationSet) Equal(other *ObservationSet) bool {
	if other == nil || len(s.observations) != len(other.observations) {
		return false
	}
	for i, o := range s.observations {
		p := other.observations[i]
		if o.Detector != p.Detector || o.Section != p.Section ||
			o.Interval != p.Interval || o.Flow != p.Flow {
			return false
		}
		if !floatPtrEqual(o.Occupancy, p.Occupancy) || !floatPtrEqual(o.Speed, p.Speed) {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
