// Package filestore persists calibration artifacts as tabular files under
// a root directory, at paths derived deterministically from the run ID and
// iteration index:
//
//	<root>/<runID>/run.json
//	<root>/<runID>/observations.csv
//	<root>/<runID>/iterations.jsonl
//	<root>/<runID>/iter_<NNNN>/od_matrix.csv
//	<root>/<runID>/report.json
package filestore

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
)

type Store struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root, logger: logger.With("component", "filestore")}, nil
}

func (s *Store) runDir(runID uuid.UUID) string {
	return filepath.Join(s.root, runID.String())
}

// MatrixPath returns the deterministic location of one iteration's matrix.
func (s *Store) MatrixPath(runID uuid.UUID, iteration int) string {
	return filepath.Join(s.runDir(runID), fmt.Sprintf("iter_%04d", iteration), "od_matrix.csv")
}

func (s *Store) observationsPath(runID uuid.UUID) string {
	return filepath.Join(s.runDir(runID), "observations.csv")
}

func (s *Store) iterationsPath(runID uuid.UUID) string {
	return filepath.Join(s.runDir(runID), "iterations.jsonl")
}

func (s *Store) runPath(runID uuid.UUID) string {
	return filepath.Join(s.runDir(runID), "run.json")
}

func (s *Store) reportPath(runID uuid.UUID) string {
	return filepath.Join(s.runDir(runID), "report.json")
}

// warnIfExists flags overwrites; artifacts are normally write-once per
// (run, iteration).
func (s *Store) warnIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		s.logger.Warn("overwriting existing artifact", "path", path)
	}
}

func (s *Store) SaveMatrix(_ context.Context, runID uuid.UUID, iteration int, m *model.ODMatrix) error {
	path := s.MatrixPath(runID, iteration)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create iteration dir: %w", err)
	}
	s.warnIfExists(path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"origin", "destination", "interval", "demand", "intervals"}); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}
	intervals := strconv.Itoa(m.Intervals())
	for _, c := range m.Cells() {
		record := []string{
			string(c.Origin),
			string(c.Destination),
			strconv.Itoa(c.Interval),
			formatFloat(c.Demand),
			intervals,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write matrix cell: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush matrix file: %w", err)
	}
	return f.Sync()
}

func (s *Store) LoadMatrix(_ context.Context, runID uuid.UUID, iteration int) (*model.ODMatrix, error) {
	path := s.MatrixPath(runID, iteration)
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

	intervals := 0
	cells := make([]model.ODCell, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 5 {
			return nil, fmt.Errorf("matrix file %s: want 5 columns, got %d", path, len(rec))
		}
		interval, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("matrix file %s: bad interval %q: %w", path, rec[2], err)
		}
		demand, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("matrix file %s: bad demand %q: %w", path, rec[3], err)
		}
		if intervals, err = strconv.Atoi(rec[4]); err != nil {
			return nil, fmt.Errorf("matrix file %s: bad interval count %q: %w", path, rec[4], err)
		}
		cells = append(cells, model.ODCell{
			Origin:      model.CentroidID(rec[0]),
			Destination: model.CentroidID(rec[1]),
			Interval:    interval,
			Demand:      demand,
		})
	}
	if intervals == 0 {
		return nil, fmt.Errorf("matrix file %s has no cells", path)
	}
	return model.NewODMatrix(intervals, cells)
}

func (s *Store) SaveObservations(_ context.Context, runID uuid.UUID, set *model.ObservationSet) error {
	path := s.observationsPath(runID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	s.warnIfExists(path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create observations file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"detector", "section", "interval", "flow", "occupancy", "speed"}); err != nil {
		return fmt.Errorf("write observations header: %w", err)
	}
	for _, o := range set.All() {
		record := []string{
			string(o.Detector),
			string(o.Section),
			strconv.Itoa(o.Interval),
			formatFloat(o.Flow),
			formatOptFloat(o.Occupancy),
			formatOptFloat(o.Speed),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write observation: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush observations file: %w", err)
	}
	return f.Sync()
}

func (s *Store) LoadObservations(_ context.Context, runID uuid.UUID) (*model.ObservationSet, error) {
	path := s.observationsPath(runID)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read observations file: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("observations file %s is empty", path)
	}

	observations := make([]model.DetectorObservation, 0, len(records))
	for _, rec := range records[1:] {
		if len(rec) != 6 {
			return nil, fmt.Errorf("observations file %s: want 6 columns, got %d", path, len(rec))
		}
		interval, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("observations file %s: bad interval %q: %w", path, rec[2], err)
		}
		flow, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("observations file %s: bad flow %q: %w", path, rec[3], err)
		}
		obs := model.DetectorObservation{
			Detector: model.DetectorID(rec[0]),
			Section:  model.SectionID(rec[1]),
			Interval: interval,
			Flow:     flow,
		}
		if obs.Occupancy, err = parseOptFloat(rec[4]); err != nil {
			return nil, fmt.Errorf("observations file %s: bad occupancy %q: %w", path, rec[4], err)
		}
		if obs.Speed, err = parseOptFloat(rec[5]); err != nil {
			return nil, fmt.Errorf("observations file %s: bad speed %q: %w", path, rec[5], err)
		}
		observations = append(observations, obs)
	}
	return model.NewObservationSet(observations)
}

func (s *Store) CreateRun(_ context.Context, run *model.CalibrationRun) error {
	if err := os.MkdirAll(s.runDir(run.ID), 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	return writeJSON(s.runPath(run.ID), run)
}

func (s *Store) UpdateRunState(ctx context.Context, runID uuid.UUID, state model.RunState) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	run.State = state
	run.UpdatedAt = time.Now().UTC()
	return writeJSON(s.runPath(runID), run)
}

func (s *Store) GetRun(_ context.Context, runID uuid.UUID) (*model.CalibrationRun, error) {
	var run model.CalibrationRun
	if err := readJSON(s.runPath(runID), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) AppendIteration(_ context.Context, summary model.IterationSummary) error {
	path := s.iterationsPath(summary.RunID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open iterations file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal iteration summary: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append iteration summary: %w", err)
	}
	return f.Sync()
}

func (s *Store) Iterations(_ context.Context, runID uuid.UUID) ([]model.IterationSummary, error) {
	f, err := os.Open(s.iterationsPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open iterations file: %w", err)
	}
	defer f.Close()

	var out []model.IterationSummary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var summary model.IterationSummary
		if err := json.Unmarshal(scanner.Bytes(), &summary); err != nil {
			return nil, fmt.Errorf("parse iteration summary: %w", err)
		}
		out = append(out, summary)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read iterations file: %w", err)
	}
	return out, nil
}

func (s *Store) SaveReport(_ context.Context, report *model.CalibrationReport) error {
	path := s.reportPath(report.RunID)
	s.warnIfExists(path)
	return writeJSON(path, report)
}

func (s *Store) LoadReport(_ context.Context, runID uuid.UUID) (*model.CalibrationReport, error) {
	var report model.CalibrationReport
	if err := readJSON(s.reportPath(runID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func writeJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// formatFloat uses the shortest representation that survives a byte-exact
// round trip through ParseFloat.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseOptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
