package engine

import (
	"fmt"
	"time"

	"backend-runtracker/internal/shared/geo"
)

type EventType string

const (
	EventFixRejected    EventType = "fix_rejected"
	EventSegmentStarted EventType = "segment_started"
	EventDistanceAdded  EventType = "distance_added"
	EventPointAppended  EventType = "point_appended"
)

const (
	ReasonAccuracy = "accuracy"
	ReasonInactive = "inactive"
)

// Event describes one effect ApplyFix had on the state.
type Event struct {
	Type       EventType
	Reason     string
	Segment    int
	Point      int
	Coordinate Coordinate
	DistanceKm float64
	Timestamp  time.Time
}

type lastFix struct {
	coord Coordinate
	at    time.Time
}

// State is the full state of one run. Values returned by ApplyFix and the
// transition functions share segment storage with their input, so a State
// must be advanced at most once; use Snapshot to hand out copies.
type State struct {
	Status  Status
	Track   Track
	Metrics Metrics

	cfg    Config
	last   *lastFix
	anchor *lastFix
}

func NewState(cfg Config) State {
	return State{Status: StatusIdle, cfg: cfg}
}

func (s State) Config() Config {
	return s.cfg
}

// ApplyFix feeds one raw fix through filter, transform and segmentation.
func ApplyFix(s State, fix Fix) (State, []Event) {
	if s.Status != StatusRunning {
		return s, []Event{{Type: EventFixRejected, Reason: ReasonInactive, Timestamp: fix.Timestamp}}
	}
	if !s.cfg.Accept(fix) {
		return s, []Event{{Type: EventFixRejected, Reason: ReasonAccuracy, Timestamp: fix.Timestamp}}
	}

	coord := Transform(fix.Latitude, fix.Longitude)
	coord.RecordedAt = fix.Timestamp

	track := make(Track, len(s.Track), len(s.Track)+1)
	copy(track, s.Track)
	if len(track) == 0 {
		track = append(track, Segment{})
	}

	var events []Event
	if s.last != nil {
		if fix.Timestamp.Sub(s.last.at) > s.cfg.SegmentGap {
			track = append(track, Segment{})
			events = append(events, Event{Type: EventSegmentStarted, Segment: len(track) - 1, Timestamp: fix.Timestamp})
		} else {
			delta := geo.HaversineKm(s.last.coord.Latitude, s.last.coord.Longitude, coord.Latitude, coord.Longitude)
			total := AddDistance(s.Metrics.TotalDistanceKm, delta)
			if total > s.Metrics.TotalDistanceKm {
				events = append(events, Event{Type: EventDistanceAdded, DistanceKm: total - s.Metrics.TotalDistanceKm, Timestamp: fix.Timestamp})
			}
			s.Metrics.TotalDistanceKm = total
			s.Metrics.CurrentPaceMinPerKm = RecomputePace(s.Metrics.CurrentPaceMinPerKm, s.Metrics.TotalTimeSeconds, total)
		}
	}

	idx := len(track) - 1
	track[idx] = append(track[idx], coord)
	s.Track = track
	s.last = &lastFix{coord: coord, at: fix.Timestamp}

	events = append(events, Event{
		Type:       EventPointAppended,
		Segment:    idx,
		Point:      len(track[idx]) - 1,
		Coordinate: coord,
		Timestamp:  fix.Timestamp,
	})
	return s, events
}

// Start begins a run from the Idle baseline with one empty segment.
func Start(s State) (State, error) {
	if s.Status != StatusIdle {
		return s, transitionError(s.Status, StatusRunning)
	}
	next := NewState(s.cfg)
	next.Status = StatusRunning
	next.Track = Track{Segment{}}
	return next, nil
}

// Pause remembers the last accepted fix; fixes are ignored until Resume.
func Pause(s State) (State, error) {
	if s.Status != StatusRunning {
		return s, transitionError(s.Status, StatusPaused)
	}
	s.anchor = s.last
	s.Status = StatusPaused
	return s, nil
}

// Resume restores the pause anchor. Gap detection keeps measuring against the
// anchor's own timestamp, so a long pause still opens a new segment.
func Resume(s State) (State, error) {
	if s.Status != StatusPaused {
		return s, transitionError(s.Status, StatusRunning)
	}
	if s.anchor != nil {
		s.last = s.anchor
	}
	s.anchor = nil
	s.Status = StatusRunning
	return s, nil
}

func Stop(s State) (State, error) {
	if s.Status != StatusRunning && s.Status != StatusPaused {
		return s, transitionError(s.Status, StatusStopped)
	}
	s.anchor = nil
	s.Status = StatusStopped
	return s, nil
}

// Reset drops the track and all totals and returns to Idle.
func Reset(s State) State {
	return NewState(s.cfg)
}

// Tick advances the elapsed run time. Only a running run accumulates time.
func Tick(s State, seconds uint64) State {
	if s.Status == StatusRunning {
		s.Metrics.TotalTimeSeconds += seconds
	}
	return s
}

func (s State) Snapshot() Snapshot {
	return Snapshot{
		Status:  s.Status,
		Track:   s.Track.clone(),
		Metrics: s.Metrics,
	}
}

func transitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
