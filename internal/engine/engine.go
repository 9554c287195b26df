// Package engine turns a stream of raw location fixes into a segmented display
// track with distance, pace and achievements. State transitions are pure
// functions on State; Engine serializes them for concurrent callers.
package engine

import "sync"

type Engine struct {
	mu    sync.Mutex
	state State
}

func New(cfg Config) *Engine {
	return &Engine{state: NewState(cfg)}
}

// OnFix applies one fix and returns the events it produced together with the
// snapshot taken under the same lock.
func (e *Engine) OnFix(fix Fix) ([]Event, Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	e.state, events = ApplyFix(e.state, fix)
	return events, e.state.Snapshot()
}

func (e *Engine) Start() (Snapshot, error) {
	return e.Transition(Start, nil)
}

func (e *Engine) Pause() (Snapshot, error) {
	return e.Transition(Pause, nil)
}

func (e *Engine) Resume() (Snapshot, error) {
	return e.Transition(Resume, nil)
}

// Stop ends the run and evaluates its summary.
func (e *Engine) Stop() (Summary, Snapshot, error) {
	return e.StopAndCommit(nil)
}

// StopAndCommit stops the run and evaluates its summary, but keeps the
// stopped state only when commit accepts it. A failing commit leaves the run
// as it was so the stop can be retried.
func (e *Engine) StopAndCommit(commit func(Summary, Snapshot) error) (Summary, Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := Stop(e.state)
	if err != nil {
		return Summary{}, e.state.Snapshot(), err
	}
	snap := next.Snapshot()
	summary := Summarize(snap.Metrics)
	if commit != nil {
		if err := commit(summary, snap); err != nil {
			return Summary{}, e.state.Snapshot(), err
		}
	}
	e.state = next
	return summary, snap, nil
}

// ApplyFixes runs a batch of fixes through ApplyFix on a working copy of the
// state. The batch is kept only when commit accepts every event it produced;
// otherwise the engine is left exactly as before the call.
func (e *Engine) ApplyFixes(fixes []Fix, commit func([]Event) error) ([]Event, Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	next.Track = next.Track.clone()
	var events []Event
	for _, fix := range fixes {
		var evs []Event
		next, evs = ApplyFix(next, fix)
		events = append(events, evs...)
	}
	if commit != nil {
		if err := commit(events); err != nil {
			return nil, e.state.Snapshot(), err
		}
	}
	e.state = next
	return events, e.state.Snapshot(), nil
}

// Transition applies fn and keeps the result only when commit accepts the
// new snapshot. A nil commit always keeps it.
func (e *Engine) Transition(fn func(State) (State, error), commit func(Snapshot) error) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.state)
	if err != nil {
		return e.state.Snapshot(), err
	}
	snap := next.Snapshot()
	if commit != nil {
		if err := commit(snap); err != nil {
			return e.state.Snapshot(), err
		}
	}
	e.state = next
	return snap, nil
}

func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = Reset(e.state)
	return e.state.Snapshot()
}

func (e *Engine) Tick(seconds uint64) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = Tick(e.state, seconds)
	return e.state.Snapshot()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Status
}
