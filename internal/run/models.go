package run

import (
	"math"
	"time"

	"backend-runtracker/internal/engine"
)

// RunView is what clients see of a live run.
type RunView struct {
	ID        string    `json:"id"`
	RunnerID  string    `json:"runner_id"`
	StartedAt time.Time `json:"started_at"`
	engine.Snapshot
}

// FixInput is the wire form of a fix; Timestamp is epoch seconds.
type FixInput struct {
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	HorizontalAccuracyM float64 `json:"horizontal_accuracy_m"`
	Timestamp           float64 `json:"timestamp"`
}

func (f FixInput) Fix() engine.Fix {
	sec, frac := math.Modf(f.Timestamp)
	return engine.Fix{
		Latitude:            f.Latitude,
		Longitude:           f.Longitude,
		HorizontalAccuracyM: f.HorizontalAccuracyM,
		Timestamp:           time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(),
	}
}

type FixResult struct {
	RunView
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type StoredSummary struct {
	RunID     string        `json:"run_id"`
	RunnerID  string        `json:"runner_id"`
	Status    engine.Status `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	engine.Summary
}
