package engine

import "time"

// Fix is one raw location sample as delivered by the location source.
type Fix struct {
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	HorizontalAccuracyM float64   `json:"horizontal_accuracy_m"`
	Timestamp           time.Time `json:"timestamp"`
}

// Coordinate is a position in the display coordinate system. RecordedAt is
// the timestamp of the fix it came from, zero for bare transforms.
type Coordinate struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Segment is a gap-free run of coordinates in arrival order.
type Segment []Coordinate

// Track holds the segments of a run; the last one is the segment being
// appended to.
type Track []Segment

// Points returns the number of coordinates across all segments.
func (t Track) Points() int {
	n := 0
	for _, seg := range t {
		n += len(seg)
	}
	return n
}

func (t Track) clone() Track {
	if t == nil {
		return nil
	}
	out := make(Track, len(t))
	for i, seg := range t {
		out[i] = append(Segment{}, seg...)
	}
	return out
}

type Metrics struct {
	TotalDistanceKm     float64 `json:"total_distance_km"`
	TotalTimeSeconds    uint64  `json:"total_time_seconds"`
	CurrentPaceMinPerKm float64 `json:"current_pace_min_per_km"`
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// Config holds the filtering and segmentation thresholds.
type Config struct {
	MaxAccuracyM float64       // fixes reporting a worse accuracy are dropped
	SegmentGap   time.Duration // a longer silence starts a new segment
}

func DefaultConfig() Config {
	return Config{
		MaxAccuracyM: 20,
		SegmentGap:   10 * time.Second,
	}
}

// Snapshot is a read-only copy of a run handed to renderers.
type Snapshot struct {
	Status  Status  `json:"status"`
	Track   Track   `json:"track"`
	Metrics Metrics `json:"metrics"`
}

type AchievementKind string

const (
	KindDistance AchievementKind = "distance"
	KindTime     AchievementKind = "time"
	KindPace     AchievementKind = "pace"
)

type Achievement struct {
	Kind        AchievementKind `json:"kind"`
	Value       float64         `json:"value"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
}

// Summary is produced once a run stops.
type Summary struct {
	DistanceKm            float64       `json:"distance_km"`
	TimeSeconds           uint64        `json:"time_seconds"`
	PaceMinPerKm          float64       `json:"pace_min_per_km"`
	Achievements          []Achievement `json:"achievements"`
	NextMilestone         int           `json:"next_milestone"`
	NextMilestoneProgress float64       `json:"next_milestone_progress"`
	RemainingKm           int           `json:"remaining_km"`
}
