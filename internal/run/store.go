package run

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-runtracker/internal/db"
	"backend-runtracker/internal/engine"

	"github.com/jackc/pgx/v5"
)

// store persists runs and their accepted points. A nil Querier turns every
// write into a no-op so the tracker can run without a database.
type store struct {
	db db.Querier
}

type storedRun struct {
	id           string
	runnerID     string
	status       engine.Status
	startedAt    time.Time
	endedAt      *time.Time
	metrics      engine.Metrics
	achievements []engine.Achievement
}

func (s store) enabled() bool {
	return s.db != nil
}

func (s store) insertRun(ctx context.Context, id, runnerID string, status engine.Status, startedAt time.Time) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO runs (id, runner_id, status, started_at)
		VALUES ($1,$2,$3,$4)
	`, id, runnerID, string(status), startedAt)
	return err
}

func (s store) restartRun(ctx context.Context, id string, startedAt time.Time) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE runs SET status=$2, started_at=$3
		WHERE id=$1
	`, id, string(engine.StatusRunning), startedAt)
	return err
}

func (s store) setStatus(ctx context.Context, id string, status engine.Status) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `UPDATE runs SET status=$2 WHERE id=$1`, id, string(status))
	return err
}

// insertPoints stores every appended point of a batch in one transaction.
func (s store) insertPoints(ctx context.Context, runID string, events []engine.Event) error {
	if !s.enabled() {
		return nil
	}
	points := make([]engine.Event, 0, len(events))
	for _, ev := range events {
		if ev.Type == engine.EventPointAppended {
			points = append(points, ev)
		}
	}
	if len(points) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, ev := range points {
			if _, err := tx.Exec(ctx, `
				INSERT INTO run_points (run_id, segment_index, point_index, location, recorded_at)
				VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6)
			`, runID, ev.Segment, ev.Point, ev.Coordinate.Longitude, ev.Coordinate.Latitude, ev.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s store) saveSummary(ctx context.Context, id string, endedAt time.Time, summary engine.Summary) error {
	if !s.enabled() {
		return nil
	}
	achievements, err := json.Marshal(summary.Achievements)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE runs
		SET status=$2, ended_at=$3, distance_km=$4, time_seconds=$5, pace_min_per_km=$6, achievements=$7
		WHERE id=$1
	`, id, string(engine.StatusStopped), endedAt, summary.DistanceKm, int64(summary.TimeSeconds), summary.PaceMinPerKm, achievements)
	return err
}

func (s store) resetRun(ctx context.Context, id string) error {
	if !s.enabled() {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM run_points WHERE run_id=$1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE runs
			SET status=$2, ended_at=NULL, distance_km=0, time_seconds=0, pace_min_per_km=0, achievements=NULL
			WHERE id=$1
		`, id, string(engine.StatusIdle))
		return err
	})
}

// inTx runs fn inside a transaction, rolling back when fn fails.
func (s store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s store) loadRun(ctx context.Context, id string) (storedRun, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, runner_id, status, started_at, ended_at,
		       COALESCE(distance_km,0), COALESCE(time_seconds,0), COALESCE(pace_min_per_km,0),
		       COALESCE(achievements,'[]'::jsonb)
		FROM runs WHERE id=$1
	`, id)

	var (
		r            storedRun
		status       string
		seconds      int64
		achievements []byte
	)
	err := row.Scan(&r.id, &r.runnerID, &status, &r.startedAt, &r.endedAt,
		&r.metrics.TotalDistanceKm, &seconds, &r.metrics.CurrentPaceMinPerKm, &achievements)
	if errors.Is(err, pgx.ErrNoRows) {
		return storedRun{}, ErrRunNotFound
	}
	if err != nil {
		return storedRun{}, err
	}
	r.status = engine.Status(status)
	if seconds > 0 {
		r.metrics.TotalTimeSeconds = uint64(seconds)
	}
	if err := json.Unmarshal(achievements, &r.achievements); err != nil {
		return storedRun{}, err
	}
	return r, nil
}

func (s store) loadTrack(ctx context.Context, runID string) (engine.Track, error) {
	rows, err := s.db.Query(ctx, `
		SELECT segment_index, ST_Y(location::geometry), ST_X(location::geometry), recorded_at
		FROM run_points WHERE run_id=$1
		ORDER BY segment_index, point_index
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	track := engine.Track{}
	for rows.Next() {
		var seg int
		var c engine.Coordinate
		if err := rows.Scan(&seg, &c.Latitude, &c.Longitude, &c.RecordedAt); err != nil {
			return nil, err
		}
		for len(track) <= seg {
			track = append(track, engine.Segment{})
		}
		track[seg] = append(track[seg], c)
	}
	return track, rows.Err()
}
