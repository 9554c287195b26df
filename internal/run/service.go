package run

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-runtracker/internal/db"
	"backend-runtracker/internal/engine"
	"backend-runtracker/internal/logger"
	"backend-runtracker/internal/stream"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type liveRun struct {
	id        string
	runnerID  string
	startedAt time.Time
	engine    *engine.Engine
}

func (r *liveRun) view(snap engine.Snapshot) RunView {
	return RunView{ID: r.id, RunnerID: r.runnerID, StartedAt: r.startedAt, Snapshot: snap}
}

// Service owns the live engines, one per run, and mirrors their progress to
// storage and to the snapshot stream.
type Service struct {
	store store
	hub   *stream.Hub
	log   *logger.Logger
	cfg   engine.Config
	now   func() time.Time

	mu   sync.RWMutex
	runs map[string]*liveRun
}

func NewService(q db.Querier, hub *stream.Hub, cfg engine.Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store: store{db: q},
		hub:   hub,
		log:   log.WithComponent("run"),
		cfg:   cfg,
		now:   time.Now,
		runs:  map[string]*liveRun{},
	}
}

// StartRun creates a run owned by runnerID and starts tracking it.
func (s *Service) StartRun(ctx context.Context, runnerID string) (RunView, error) {
	r := &liveRun{
		id:        uuid.NewString(),
		runnerID:  runnerID,
		startedAt: s.now().UTC(),
		engine:    engine.New(s.cfg),
	}
	snap, err := r.engine.Start()
	if err != nil {
		return RunView{}, wrap(err, codeTransition, r.id, "start run")
	}
	if err := s.store.insertRun(ctx, r.id, runnerID, snap.Status, r.startedAt); err != nil {
		return RunView{}, wrap(err, codeStorage, r.id, "insert run")
	}

	s.mu.Lock()
	s.runs[r.id] = r
	s.mu.Unlock()

	s.log.WithRun(r.id).Info("run started", zap.String("runner_id", runnerID))
	return s.publish(r, snap), nil
}

// Start restarts a run that was reset back to Idle.
func (s *Service) Start(ctx context.Context, runID, runnerID string) (RunView, error) {
	r, err := s.lookup(runID, runnerID)
	if err != nil {
		return RunView{}, err
	}
	startedAt := s.now().UTC()
	var storeErr error
	snap, err := r.engine.Transition(engine.Start, func(engine.Snapshot) error {
		storeErr = s.store.restartRun(ctx, runID, startedAt)
		return storeErr
	})
	if storeErr != nil {
		return RunView{}, wrap(storeErr, codeStorage, runID, "restart run")
	}
	if err != nil {
		return RunView{}, wrap(err, codeTransition, runID, "start run")
	}
	s.mu.Lock()
	r.startedAt = startedAt
	s.mu.Unlock()
	return s.publish(r, snap), nil
}

// AddFixes feeds fixes to the run in order and persists every accepted point.
// The batch is all or nothing: when a point cannot be stored the run is left
// as it was before the call.
func (s *Service) AddFixes(ctx context.Context, runID, runnerID string, fixes []engine.Fix) (FixResult, error) {
	r, err := s.lookup(runID, runnerID)
	if err != nil {
		return FixResult{}, err
	}
	log := s.log.WithRun(runID)

	events, snap, err := r.engine.ApplyFixes(fixes, func(events []engine.Event) error {
		return s.store.insertPoints(ctx, runID, events)
	})
	if err != nil {
		return FixResult{}, wrap(err, codeStorage, runID, "insert points")
	}

	var result FixResult
	for _, ev := range events {
		switch ev.Type {
		case engine.EventPointAppended:
			result.Accepted++
		case engine.EventFixRejected:
			result.Rejected++
			log.Debug("fix dropped", zap.String("reason", ev.Reason), zap.Time("timestamp", ev.Timestamp))
		case engine.EventSegmentStarted:
			log.Debug("gap detected, new segment", zap.Int("segment", ev.Segment))
		}
	}

	result.RunView = s.publish(r, snap)
	return result, nil
}

func (s *Service) Pause(ctx context.Context, runID, runnerID string) (RunView, error) {
	return s.transition(ctx, runID, runnerID, "pause run", engine.Pause)
}

func (s *Service) Resume(ctx context.Context, runID, runnerID string) (RunView, error) {
	return s.transition(ctx, runID, runnerID, "resume run", engine.Resume)
}

// Stop ends the run, evaluates achievements and stores the summary. The run
// only becomes Stopped once the summary is stored; with a database it is then
// dropped from memory and served from storage.
func (s *Service) Stop(ctx context.Context, runID, runnerID string) (StoredSummary, error) {
	r, err := s.lookup(runID, runnerID)
	if err != nil {
		return StoredSummary{}, err
	}

	endedAt := s.now().UTC()
	var storeErr error
	summary, snap, err := r.engine.StopAndCommit(func(summary engine.Summary, _ engine.Snapshot) error {
		storeErr = s.store.saveSummary(ctx, runID, endedAt, summary)
		return storeErr
	})
	if storeErr != nil {
		return StoredSummary{}, wrap(storeErr, codeStorage, runID, "save summary")
	}
	if err != nil {
		return StoredSummary{}, wrap(err, codeTransition, runID, "stop run")
	}
	s.publish(r, snap)
	if s.store.enabled() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	}

	s.log.WithRun(runID).Info("run stopped",
		zap.Float64("distance_km", summary.DistanceKm),
		zap.Uint64("time_seconds", summary.TimeSeconds),
		zap.Int("achievements", len(summary.Achievements)))

	return StoredSummary{
		RunID:     runID,
		RunnerID:  r.runnerID,
		Status:    snap.Status,
		StartedAt: s.startedAt(r),
		EndedAt:   &endedAt,
		Summary:   summary,
	}, nil
}

// Reset clears the run back to Idle and drops its stored points.
func (s *Service) Reset(ctx context.Context, runID, runnerID string) (RunView, error) {
	r, err := s.lookup(runID, runnerID)
	if err != nil {
		return RunView{}, err
	}
	snap, err := r.engine.Transition(resetState, func(engine.Snapshot) error {
		return s.store.resetRun(ctx, runID)
	})
	if err != nil {
		return RunView{}, wrap(err, codeStorage, runID, "reset run")
	}
	return s.publish(r, snap), nil
}

// Tick advances the run clock by seconds.
func (s *Service) Tick(runID, runnerID string, seconds uint64) (RunView, error) {
	r, err := s.lookup(runID, runnerID)
	if err != nil {
		return RunView{}, err
	}
	return s.publish(r, r.engine.Tick(seconds)), nil
}

// TickAll advances the clock of every running run and returns how many
// were advanced.
func (s *Service) TickAll(seconds uint64) int {
	s.mu.RLock()
	runs := make([]*liveRun, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.RUnlock()

	n := 0
	for _, r := range runs {
		if r.engine.Status() != engine.StatusRunning {
			continue
		}
		s.publish(r, r.engine.Tick(seconds))
		n++
	}
	return n
}

func (s *Service) Snapshot(runID string) (RunView, error) {
	r, err := s.lookup(runID, "")
	if err != nil {
		return RunView{}, err
	}
	snap := r.engine.Snapshot()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.view(snap), nil
}

// Track returns the live snapshot, or rebuilds a stopped run from storage
// when it is no longer held in memory.
func (s *Service) Track(ctx context.Context, runID string) (engine.Snapshot, error) {
	if r, err := s.lookup(runID, ""); err == nil {
		return r.engine.Snapshot(), nil
	}
	if !s.store.enabled() {
		return engine.Snapshot{}, wrap(ErrRunNotFound, codeNotFound, runID, "lookup run")
	}

	stored, err := s.store.loadRun(ctx, runID)
	if err != nil {
		return engine.Snapshot{}, s.storageError(err, runID, "load run")
	}
	track, err := s.store.loadTrack(ctx, runID)
	if err != nil {
		return engine.Snapshot{}, wrap(err, codeStorage, runID, "load track")
	}
	return engine.Snapshot{Status: stored.status, Track: track, Metrics: stored.metrics}, nil
}

// Summary returns the summary of a run. Runs that are still live, or every
// run when there is no database, are summarized from memory; stopped runs
// come from storage.
func (s *Service) Summary(ctx context.Context, runID string) (StoredSummary, error) {
	r, err := s.lookup(runID, "")
	if err != nil && !s.store.enabled() {
		return StoredSummary{}, err
	}
	if err == nil {
		snap := r.engine.Snapshot()
		if !s.store.enabled() || snap.Status != engine.StatusStopped {
			return StoredSummary{
				RunID:     runID,
				RunnerID:  r.runnerID,
				Status:    snap.Status,
				StartedAt: s.startedAt(r),
				Summary:   engine.Summarize(snap.Metrics),
			}, nil
		}
	}

	stored, err := s.store.loadRun(ctx, runID)
	if err != nil {
		return StoredSummary{}, s.storageError(err, runID, "load run")
	}
	summary := engine.Summarize(stored.metrics)
	summary.Achievements = stored.achievements
	if summary.Achievements == nil {
		summary.Achievements = []engine.Achievement{}
	}
	return StoredSummary{
		RunID:     stored.id,
		RunnerID:  stored.runnerID,
		Status:    stored.status,
		StartedAt: stored.startedAt,
		EndedAt:   stored.endedAt,
		Summary:   summary,
	}, nil
}

func (s *Service) transition(ctx context.Context, runID, runnerID, action string, fn func(engine.State) (engine.State, error)) (RunView, error) {
	r, err := s.lookup(runID, runnerID)
	if err != nil {
		return RunView{}, err
	}
	var storeErr error
	snap, err := r.engine.Transition(fn, func(snap engine.Snapshot) error {
		storeErr = s.store.setStatus(ctx, runID, snap.Status)
		return storeErr
	})
	if storeErr != nil {
		return RunView{}, wrap(storeErr, codeStorage, runID, action)
	}
	if err != nil {
		return RunView{}, wrap(err, codeTransition, runID, action)
	}
	return s.publish(r, snap), nil
}

func resetState(st engine.State) (engine.State, error) {
	return engine.Reset(st), nil
}

// lookup finds a live run; an empty runnerID skips the ownership check.
func (s *Service) lookup(runID, runnerID string) (*liveRun, error) {
	s.mu.RLock()
	r, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, wrap(ErrRunNotFound, codeNotFound, runID, "lookup run")
	}
	if runnerID != "" && r.runnerID != runnerID {
		return nil, wrap(ErrNotOwner, codeForbidden, runID, "lookup run")
	}
	return r, nil
}

func (s *Service) storageError(err error, runID, message string) error {
	if errors.Is(err, ErrRunNotFound) {
		return wrap(err, codeNotFound, runID, message)
	}
	return wrap(err, codeStorage, runID, message)
}

func (s *Service) startedAt(r *liveRun) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.startedAt
}

func (s *Service) publish(r *liveRun, snap engine.Snapshot) RunView {
	s.mu.RLock()
	view := r.view(snap)
	s.mu.RUnlock()
	if s.hub != nil {
		s.hub.Publish(r.id, view)
	}
	return view
}
