package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/lib/pq"
)

type ObservationRepo struct {
	db *DB
}

func NewObservationRepo(db *DB) *ObservationRepo {
	return &ObservationRepo{db: db}
}

func (r *ObservationRepo) SaveObservations(ctx context.Context, runID uuid.UUID, set *model.ObservationSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save observations: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM detector_observations WHERE run_id = $1
	`, runID); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"detector_observations",
		"run_id", "detector", "section", "interval", "flow", "occupancy", "speed",
	))
	if err != nil {
		return fmt.Errorf("prepare observations copy: %w", err)
	}
	for _, o := range set.All() {
		if _, err := stmt.ExecContext(ctx,
			runID, string(o.Detector), string(o.Section), o.Interval, o.Flow,
			nullFloat(o.Occupancy), nullFloat(o.Speed),
		); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy observation: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush observations copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close observations copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save observations: %w", err)
	}
	return nil
}

func (r *ObservationRepo) LoadObservations(ctx context.Context, runID uuid.UUID) (*model.ObservationSet, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT detector, section, interval, flow, occupancy, speed
		FROM detector_observations
		WHERE run_id = $1
		ORDER BY detector, interval
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	defer rows.Close()

	var observations []model.DetectorObservation
	for rows.Next() {
		var (
			o         model.DetectorObservation
			occupancy sql.NullFloat64
			speed     sql.NullFloat64
		)
		if err := rows.Scan(&o.Detector, &o.Section, &o.Interval, &o.Flow, &occupancy, &speed); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if occupancy.Valid {
			v := occupancy.Float64
			o.Occupancy = &v
		}
		if speed.Valid {
			v := speed.Float64
			o.Speed = &v
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return model.NewObservationSet(observations)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
