// Package input loads the canonical calibration inputs from disk: the
// network reference and static tables from YAML, observations and the
// initial OD matrix from CSV. All records pass through the validating model
// constructors; malformed input fails fast with a ValidationError.
package input

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/johnlee-jh/traffic-microsimulation/internal/adjust"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"gopkg.in/yaml.v3"
)

type networkDoc struct {
	ID     string `yaml:"id"`
	Window struct {
		Start time.Time `yaml:"start"`
		// Step is a Go duration string, e.g. "15m".
		Step  string `yaml:"step"`
		Count int    `yaml:"count"`
	} `yaml:"window"`
	Centroids []string `yaml:"centroids"`
	Sections  []string `yaml:"sections"`
	Detectors []struct {
		ID      string `yaml:"id"`
		Section string `yaml:"section"`
	} `yaml:"detectors"`
}

// LoadNetwork reads a network reference document.
func LoadNetwork(path string) (*model.NetworkReference, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	var doc networkDoc
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parse network file %s: %w", path, err)
	}

	step, err := time.ParseDuration(doc.Window.Step)
	if err != nil {
		return nil, fmt.Errorf("parse window step %q: %w", doc.Window.Step, err)
	}
	window, err := model.NewWindow(doc.Window.Start, step, doc.Window.Count)
	if err != nil {
		return nil, err
	}
	centroids := make([]model.CentroidID, len(doc.Centroids))
	for i, c := range doc.Centroids {
		centroids[i] = model.CentroidID(c)
	}
	sections := make([]model.SectionID, len(doc.Sections))
	for i, s := range doc.Sections {
		sections[i] = model.SectionID(s)
	}
	detectors := make(map[model.DetectorID]model.SectionID, len(doc.Detectors))
	for _, d := range doc.Detectors {
		detectors[model.DetectorID(d.ID)] = model.SectionID(d.Section)
	}
	return model.NewNetworkReference(doc.ID, centroids, sections, detectors, window)
}

type staticTablesDoc struct {
	ControlPlan   *model.ControlPlan           `yaml:"control_plan"`
	SpeedCapacity *model.SpeedCapacityTable    `yaml:"speed_capacity"`
	CentroidConf  *model.CentroidConfiguration `yaml:"centroid_configuration"`
}

// LoadStaticTables reads the pass-through simulator tables.
func LoadStaticTables(path string) (model.StaticTables, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return model.StaticTables{}, fmt.Errorf("read static tables file: %w", err)
	}
	var doc staticTablesDoc
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return model.StaticTables{}, fmt.Errorf("parse static tables file %s: %w", path, err)
	}
	return model.StaticTables{
		ControlPlan:   doc.ControlPlan,
		SpeedCapacity: doc.SpeedCapacity,
		CentroidConf:  doc.CentroidConf,
	}, nil
}

// LoadObservations reads raw detector measurements (CSV columns: detector,
// section, timestamp, flow, occupancy, speed) and maps timestamps onto the
// window's intervals. Any detector with a timestamp off the reporting grid
// is excluded entirely and returned in the second value; misaligned data is
// never coerced.
func LoadObservations(path string, window model.Window, logger *slog.Logger) (*model.ObservationSet, []model.DetectorID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open observations file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read observations file: %w", err)
	}
	if len(records) < 1 {
		return nil, nil, fmt.Errorf("observations file %s is empty", path)
	}

	type raw struct {
		obs model.DetectorObservation
		ok  bool
	}
	misaligned := make(map[model.DetectorID]struct{})
	var rows []raw
	for i, rec := range records[1:] {
		if len(rec) != 6 {
			return nil, nil, fmt.Errorf("observations file %s row %d: want 6 columns, got %d", path, i+2, len(rec))
		}
		det := model.DetectorID(rec[0])
		ts, err := time.Parse(time.RFC3339, rec[2])
		if err != nil {
			return nil, nil, fmt.Errorf("observations file %s row %d: bad timestamp %q: %w", path, i+2, rec[2], err)
		}
		flow, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("observations file %s row %d: bad flow %q: %w", path, i+2, rec[3], err)
		}
		interval, aligned := window.IntervalOf(ts)
		if !aligned {
			misaligned[det] = struct{}{}
		}
		row := raw{ok: aligned}
		row.obs = model.DetectorObservation{
			Detector: det,
			Section:  model.SectionID(rec[1]),
			Interval: interval,
			Flow:     flow,
		}
		if row.obs.Occupancy, err = optFloat(rec[4]); err != nil {
			return nil, nil, fmt.Errorf("observations file %s row %d: bad occupancy %q: %w", path, i+2, rec[4], err)
		}
		if row.obs.Speed, err = optFloat(rec[5]); err != nil {
			return nil, nil, fmt.Errorf("observations file %s row %d: bad speed %q: %w", path, i+2, rec[5], err)
		}
		rows = append(rows, row)
	}

	var kept []model.DetectorObservation
	for _, row := range rows {
		if _, bad := misaligned[row.obs.Detector]; bad {
			continue
		}
		kept = append(kept, row.obs)
	}

	excluded := make([]model.DetectorID, 0, len(misaligned))
	for det := range misaligned {
		excluded = append(excluded, det)
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i] < excluded[j] })
	if len(excluded) > 0 {
		logger.Warn("detectors excluded for misaligned intervals",
			"file", path, "detectors", len(excluded))
	}

	set, err := model.NewObservationSet(kept)
	if err != nil {
		return nil, nil, err
	}
	return set, excluded, nil
}

// LoadMatrix reads an OD matrix (CSV columns: origin, destination,
// interval, demand) sized to the window.
func LoadMatrix(path string, window model.Window) (*model.ODMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read matrix file: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("matrix file %s is empty", path)
	}

	var cells []model.ODCell
	for i, rec := range records[1:] {
		if len(rec) != 4 {
			return nil, fmt.Errorf("matrix file %s row %d: want 4 columns, got %d", path, i+2, len(rec))
		}
		interval, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("matrix file %s row %d: bad interval %q: %w", path, i+2, rec[2], err)
		}
		demand, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("matrix file %s row %d: bad demand %q: %w", path, i+2, rec[3], err)
		}
		cells = append(cells, model.ODCell{
			Origin:      model.CentroidID(rec[0]),
			Destination: model.CentroidID(rec[1]),
			Interval:    interval,
			Demand:      demand,
		})
	}
	return model.NewODMatrix(window.Count, cells)
}

// LoadAssignmentWeights reads an optional assignment-proportion table (CSV
// columns: detector, origin, destination, weight). Returns nil when path is
// empty, selecting the adjustment engine's uniform fallback.
func LoadAssignmentWeights(path string) (adjust.Weights, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open assignment file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read assignment file: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("assignment file %s is empty", path)
	}

	weights := make(adjust.Weights)
	for i, rec := range records[1:] {
		if len(rec) != 4 {
			return nil, fmt.Errorf("assignment file %s row %d: want 4 columns, got %d", path, i+2, len(rec))
		}
		w, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("assignment file %s row %d: bad weight %q: %w", path, i+2, rec[3], err)
		}
		if w < 0 {
			return nil, fmt.Errorf("assignment file %s row %d: negative weight %g", path, i+2, w)
		}
		det := model.DetectorID(rec[0])
		pair := model.ODPair{Origin: model.CentroidID(rec[1]), Destination: model.CentroidID(rec[2])}
		if weights[det] == nil {
			weights[det] = make(map[model.ODPair]float64)
		}
		weights[det][pair] = w
	}
	return weights, nil
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
