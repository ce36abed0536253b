// Package fetcher drives acquisition runs: dial the remote catalog, list its
// day files, download each into the cache, and report progress over a per-run
// event channel. Network I/O happens on the run's own goroutine so callers
// are never blocked.
package fetcher

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenhollow/envfetch/internal/catalog"
	"github.com/greenhollow/envfetch/internal/daycache"
	"github.com/greenhollow/envfetch/internal/log"
	"github.com/greenhollow/envfetch/internal/types"
)

// ErrBusy is returned by Start while a previous run has not reached a
// terminal state. Runs are rejected, never queued.
var ErrBusy = errors.New("acquisition already in progress")

// State is the worker's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateListing
	StateDownloading
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateListing:
		return "listing"
	case StateDownloading:
		return "downloading"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventType tags entries on a run's event channel.
type EventType int

const (
	// EventProgress carries the download fraction completed so far.
	EventProgress EventType = iota
	// EventStatus carries a human-readable phase description.
	EventStatus
	// EventCompleted is terminal and carries the result snapshot.
	EventCompleted
	// EventFailed is terminal and carries the consolidated run error.
	EventFailed
)

// Event is one update from an acquisition run. Every run emits zero or more
// Progress and Status events followed by exactly one Completed or Failed
// event, after which the channel is closed.
type Event struct {
	Type     EventType
	RunID    uuid.UUID
	Fraction float64
	Message  string
	Result   *types.Snapshot
	Err      error
}

// Terminal reports whether the event ends its run.
func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventFailed
}

// eventBuffer sizes each run's channel so short runs never block on a slow
// consumer. Consumers are still expected to drain to the close.
const eventBuffer = 64

// Worker performs acquisition runs against one catalog store, filling one
// cache. At most one run is active at a time.
type Worker struct {
	dialer catalog.Dialer
	cache  *daycache.Cache
	logger *zap.SugaredLogger

	mu       sync.Mutex
	state    State
	fraction float64
	runID    uuid.UUID
	lastErr  error
}

// New creates an idle worker.
func New(dialer catalog.Dialer, cache *daycache.Cache) *Worker {
	return &Worker{
		dialer: dialer,
		cache:  cache,
		logger: log.GetSugaredLogger(),
		state:  StateIdle,
	}
}

// Start launches an acquisition run and returns its event channel. While a
// run is active, further Start calls return ErrBusy; after a terminal state
// the worker can be started again.
func (w *Worker) Start() (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateConnecting, StateListing, StateDownloading:
		return nil, ErrBusy
	}

	w.state = StateConnecting
	w.fraction = 0
	w.lastErr = nil
	w.runID = uuid.New()

	events := make(chan Event, eventBuffer)
	go w.run(w.runID, events)
	return events, nil
}

// Status returns the current state and, for an active run, the download
// fraction completed so far. The fraction of a failed run is preserved.
func (w *Worker) Status() (State, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.fraction
}

// LastError returns the consolidated error of the most recent run, or nil.
func (w *Worker) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Worker) run(runID uuid.UUID, events chan<- Event) {
	defer close(events)

	result, err := w.acquire(runID, events)
	if err != nil {
		w.logger.Errorf("acquisition %s failed: %v", runID, err)
		w.mu.Lock()
		w.state = StateFailed
		w.lastErr = err
		w.mu.Unlock()
		events <- Event{Type: EventFailed, RunID: runID, Message: err.Error(), Err: err}
		return
	}

	w.logger.Infof("acquisition %s completed with %d cached days", runID, len(result.Dates))
	w.setState(StateCompleted)
	events <- Event{Type: EventCompleted, RunID: runID, Fraction: 1, Result: result}
}

// acquire walks the run through its phases and returns the cache snapshot on
// success. The session is closed on every return path.
func (w *Worker) acquire(runID uuid.UUID, events chan<- Event) (*types.Snapshot, error) {
	events <- Event{Type: EventStatus, RunID: runID, Message: "connecting to remote store"}
	session, err := w.dialer.Dial()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer session.Close()

	w.setState(StateListing)
	events <- Event{Type: EventStatus, RunID: runID, Message: "retrieving file listing"}
	names, err := session.List()
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("list: %w: no day files on remote store", daycache.ErrEmptyResult)
	}

	w.setState(StateDownloading)
	for i, name := range names {
		events <- Event{
			Type:    EventStatus,
			RunID:   runID,
			Message: fmt.Sprintf("downloading %s (%d of %d)", name, i+1, len(names)),
		}

		content, err := session.Download(name)
		if err != nil {
			// Best effort: one bad file does not abort the run
			w.logger.Warnf("download of %s failed, continuing: %v", name, err)
		} else if date, variant, ok := catalog.ParseFilename(name); ok {
			w.cache.Put(date, variant, content)
		}

		frac := float64(i+1) / float64(len(names))
		w.setFraction(frac)
		events <- Event{Type: EventProgress, RunID: runID, Fraction: frac}
	}

	return w.cache.Snapshot(), nil
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) setFraction(f float64) {
	w.mu.Lock()
	w.fraction = f
	w.mu.Unlock()
}
