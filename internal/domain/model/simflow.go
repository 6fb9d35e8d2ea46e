package model

import "sort"

// SimulatedFlow is one per-section, per-interval flow produced by the
// external simulator, shaped to pair one-to-one with a detector observation.
type SimulatedFlow struct {
	Section  SectionID
	Interval int
	Flow     float64
}

type flowKey struct {
	section  SectionID
	interval int
}

// SimulatedFlowSet indexes simulated flows by (section, interval).
type SimulatedFlowSet struct {
	flows map[flowKey]float64
}

func NewSimulatedFlowSet(flows []SimulatedFlow) (*SimulatedFlowSet, error) {
	s := &SimulatedFlowSet{flows: make(map[flowKey]float64, len(flows))}
	for _, f := range flows {
		if f.Section == "" {
			return nil, validationErr("simulated_flow", "section", "must be set")
		}
		if f.Interval < 0 {
			return nil, validationErr("simulated_flow", "interval", "must be non-negative, got %d", f.Interval)
		}
		if f.Flow < 0 {
			return nil, validationErr("simulated_flow", "flow",
				"must be non-negative, got %g for section %s", f.Flow, f.Section)
		}
		key := flowKey{f.Section, f.Interval}
		if _, dup := s.flows[key]; dup {
			return nil, validationErr("simulated_flow_set", "",
				"duplicate flow for section %s interval %d", f.Section, f.Interval)
		}
		s.flows[key] = f.Flow
	}
	return s, nil
}

// Flow returns the simulated flow for a section at an interval.
func (s *SimulatedFlowSet) Flow(section SectionID, interval int) (float64, bool) {
	f, ok := s.flows[flowKey{section, interval}]
	return f, ok
}

func (s *SimulatedFlowSet) Len() int { return len(s.flows) }

// All returns the flows sorted by (section, interval).
func (s *SimulatedFlowSet) All() []SimulatedFlow {
	out := make([]SimulatedFlow, 0, len(s.flows))
	for k, v := range s.flows {
		out = append(out, SimulatedFlow{Section: k.section, Interval: k.interval, Flow: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Interval < out[j].Interval
	})
	return out
}

// MatchedPair joins one detector observation with the simulated flow on the
// same section and interval. Derived and ephemeral: recomputed every
// iteration, never the canonical record.
type MatchedPair struct {
	Detector  DetectorID
	Section   SectionID
	Interval  int
	Observed  float64
	Simulated float64
}
