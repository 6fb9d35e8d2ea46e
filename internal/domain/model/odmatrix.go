package model

import "sort"

// ODPair is an origin-destination centroid pair.
type ODPair struct {
	Origin      CentroidID
	Destination CentroidID
}

// ODCell is one demand value: vehicles per interval for an OD pair at a
// time interval. Used for construction and serialization of matrices.
type ODCell struct {
	Origin      CentroidID
	Destination CentroidID
	Interval    int
	Demand      float64
}

type odKey struct {
	origin      CentroidID
	destination CentroidID
	interval    int
}

// ODMatrix maps (origin, destination, interval) to non-negative demand.
// Pairs without an explicit cell have zero demand. Matrices are immutable:
// the adjustment engine always produces a new matrix, so every iteration's
// demand is independently inspectable and reproducible.
type ODMatrix struct {
	intervals int
	cells     map[odKey]float64
}

func NewODMatrix(intervals int, cells []ODCell) (*ODMatrix, error) {
	if intervals <= 0 {
		return nil, validationErr("od_matrix", "intervals", "must be positive, got %d", intervals)
	}
	m := &ODMatrix{
		intervals: intervals,
		cells:     make(map[odKey]float64, len(cells)),
	}
	for _, c := range cells {
		if c.Origin == "" || c.Destination == "" {
			return nil, validationErr("od_matrix", "cells", "empty centroid id in cell")
		}
		if c.Interval < 0 || c.Interval >= intervals {
			return nil, validationErr("od_matrix", "cells",
				"interval %d out of range [0,%d) for %s->%s", c.Interval, intervals, c.Origin, c.Destination)
		}
		if c.Demand < 0 {
			return nil, validationErr("od_matrix", "cells",
				"negative demand %g for %s->%s interval %d", c.Demand, c.Origin, c.Destination, c.Interval)
		}
		key := odKey{c.Origin, c.Destination, c.Interval}
		if _, dup := m.cells[key]; dup {
			return nil, validationErr("od_matrix", "cells",
				"duplicate cell %s->%s interval %d", c.Origin, c.Destination, c.Interval)
		}
		if c.Demand == 0 {
			continue // missing and zero are the same value
		}
		m.cells[key] = c.Demand
	}
	return m, nil
}

func (m *ODMatrix) Intervals() int { return m.intervals }

// Demand returns the demand for a pair at an interval, zero if absent.
func (m *ODMatrix) Demand(origin, destination CentroidID, interval int) float64 {
	return m.cells[odKey{origin, destination, interval}]
}

// TotalDemand sums demand over all pairs at one interval.
func (m *ODMatrix) TotalDemand(interval int) float64 {
	var total float64
	for k, v := range m.cells {
		if k.interval == interval {
			total += v
		}
	}
	return total
}

// Cells returns all non-zero cells sorted by (origin, destination, interval).
func (m *ODMatrix) Cells() []ODCell {
	out := make([]ODCell, 0, len(m.cells))
	for k, v := range m.cells {
		out = append(out, ODCell{
			Origin:      k.origin,
			Destination: k.destination,
			Interval:    k.interval,
			Demand:      v,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		return a.Interval < b.Interval
	})
	return out
}

// Pairs returns the distinct OD pairs with non-zero demand, sorted.
func (m *ODMatrix) Pairs() []ODPair {
	seen := make(map[ODPair]struct{})
	for k := range m.cells {
		seen[ODPair{k.origin, k.destination}] = struct{}{}
	}
	out := make([]ODPair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Origin != out[j].Origin {
			return out[i].Origin < out[j].Origin
		}
		return out[i].Destination < out[j].Destination
	})
	return out
}

// Equal reports field-for-field equality of two matrices.
func (m *ODMatrix) Equal(other *ODMatrix) bool {
	if other == nil || m.intervals != other.intervals || len(m.cells) != len(other.cells) {
		return false
	}
	for k, v := range m.cells {
		if ov, ok := other.cells[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ValidateAgainst checks the matrix is consistent with a network reference:
// every cell's centroids belong to the network and the interval count
// matches the network window. Centroid set mismatch is fatal at run start.
func (m *ODMatrix) ValidateAgainst(ref *NetworkReference) error {
	if m.intervals != ref.Window().Count {
		return validationErr("od_matrix", "intervals",
			"matrix has %d intervals, network window has %d", m.intervals, ref.Window().Count)
	}
	for k := range m.cells {
		if !ref.HasCentroid(k.origin) {
			return validationErr("od_matrix", "cells",
				"origin centroid %s not in network %s", k.origin, ref.ID())
		}
		if !ref.HasCentroid(k.destination) {
			return validationErr("od_matrix", "cells",
				"destination centroid %s not in network %s", k.destination, ref.ID())
		}
	}
	return nil
}
