package fetcher

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/greenhollow/envfetch/internal/catalog"
	"github.com/greenhollow/envfetch/internal/daycache"
	"github.com/greenhollow/envfetch/internal/types"
)

type fakeSession struct {
	files        map[string]string
	listErr      error
	downloadErrs map[string]error
	gate         chan struct{}
	closes       int
}

func (s *fakeSession) List() ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var names []string
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeSession) Download(name string) (string, error) {
	if s.gate != nil {
		<-s.gate
	}
	if err, ok := s.downloadErrs[name]; ok {
		return "", err
	}
	content, ok := s.files[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", catalog.ErrTransfer, name)
	}
	return content, nil
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

type fakeDialer struct {
	session *fakeSession
	err     error
	dials   int
}

func (d *fakeDialer) Dial() (catalog.Session, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func drain(ch <-chan Event) []Event {
	var events []Event
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func terminalOf(t *testing.T, events []Event) Event {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("run emitted no events")
	}
	last := events[len(events)-1]
	if !last.Terminal() {
		t.Fatalf("last event type = %v, expected a terminal event", last.Type)
	}
	for _, e := range events[:len(events)-1] {
		if e.Terminal() {
			t.Fatalf("terminal event emitted before the end of the run")
		}
	}
	return last
}

func waitForState(t *testing.T, w *Worker, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, _ := w.Status(); state == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	state, _ := w.Status()
	t.Fatalf("worker state = %v, expected %v", state, want)
}

func TestRunCompletes(t *testing.T) {
	session := &fakeSession{files: map[string]string{
		"02_03_2025.csv":         "02/03/2025 10:00,60,20.0,1010.0,40.0\n",
		"01_03_2025.csv":         "01/03/2025 10:00,60,19.0,1011.0,41.0\n",
		"01_03_2025_outside.csv": "01/03/2025 10:00,60,8.0,1011.0,70.0\n",
	}}
	cache := daycache.New()
	w := New(&fakeDialer{session: session}, cache)

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drain(ch)

	last := terminalOf(t, events)
	if last.Type != EventCompleted {
		t.Fatalf("terminal event = %v (%v), expected Completed", last.Type, last.Err)
	}
	if last.Result == nil {
		t.Fatal("Completed event carries no result")
	}

	wantDates := []types.DateKey{
		types.NewDateKey(2025, time.March, 1),
		types.NewDateKey(2025, time.March, 2),
	}
	if len(last.Result.Dates) != len(wantDates) {
		t.Fatalf("result has %d dates, expected %d", len(last.Result.Dates), len(wantDates))
	}
	for i, want := range wantDates {
		if last.Result.Dates[i] != want {
			t.Errorf("result date %d = %v, expected %v", i, last.Result.Dates[i], want)
		}
	}
	if len(last.Result.Secondary) != 1 {
		t.Errorf("result has %d secondary days, expected 1", len(last.Result.Secondary))
	}

	// Progress never regresses and finishes at 1
	lastFrac := 0.0
	for _, e := range events {
		if e.Type != EventProgress {
			continue
		}
		if e.Fraction < lastFrac {
			t.Errorf("progress regressed from %v to %v", lastFrac, e.Fraction)
		}
		lastFrac = e.Fraction
	}
	if lastFrac != 1.0 {
		t.Errorf("final progress = %v, expected 1.0", lastFrac)
	}

	// All events belong to the same run
	for _, e := range events {
		if e.RunID != last.RunID {
			t.Errorf("event run ID %v differs from run's %v", e.RunID, last.RunID)
		}
	}

	if session.closes != 1 {
		t.Errorf("session closed %d times, expected exactly once", session.closes)
	}
	if state, _ := w.Status(); state != StateCompleted {
		t.Errorf("worker state = %v, expected completed", state)
	}
}

func TestStartWhileActiveRejected(t *testing.T) {
	gate := make(chan struct{})
	session := &fakeSession{
		files: map[string]string{"01_03_2025.csv": "01/03/2025 10:00,60,19.0,1011.0,41.0\n"},
		gate:  gate,
	}
	w := New(&fakeDialer{session: session}, daycache.New())

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForState(t, w, StateDownloading)

	if _, err := w.Start(); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start error = %v, expected ErrBusy", err)
	}

	close(gate)
	terminalOf(t, drain(ch))

	// A terminal state permits the next run
	ch2, err := w.Start()
	if err != nil {
		t.Fatalf("Start after terminal state: %v", err)
	}
	terminalOf(t, drain(ch2))
}

func TestDialFailure(t *testing.T) {
	dialErr := fmt.Errorf("%w: dial tcp: connection refused", catalog.ErrNetwork)
	w := New(&fakeDialer{err: dialErr}, daycache.New())

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	last := terminalOf(t, drain(ch))

	if last.Type != EventFailed {
		t.Fatalf("terminal event = %v, expected Failed", last.Type)
	}
	if !errors.Is(last.Err, catalog.ErrNetwork) {
		t.Errorf("failure error = %v, expected to wrap ErrNetwork", last.Err)
	}
	if last.Message == "" {
		t.Error("Failed event carries no message")
	}
	if state, _ := w.Status(); state != StateFailed {
		t.Errorf("worker state = %v, expected failed", state)
	}
	if !errors.Is(w.LastError(), catalog.ErrNetwork) {
		t.Errorf("LastError = %v, expected to wrap ErrNetwork", w.LastError())
	}
}

func TestEmptyListingFails(t *testing.T) {
	session := &fakeSession{files: map[string]string{}}
	w := New(&fakeDialer{session: session}, daycache.New())

	ch, _ := w.Start()
	last := terminalOf(t, drain(ch))

	if last.Type != EventFailed {
		t.Fatalf("terminal event = %v, expected Failed on empty listing", last.Type)
	}
	if !errors.Is(last.Err, daycache.ErrEmptyResult) {
		t.Errorf("failure error = %v, expected to wrap ErrEmptyResult", last.Err)
	}
	if session.closes != 1 {
		t.Errorf("session closed %d times, expected exactly once", session.closes)
	}
}

func TestListingErrorFails(t *testing.T) {
	session := &fakeSession{
		listErr: fmt.Errorf("%w: 550 denied", catalog.ErrListing),
	}
	w := New(&fakeDialer{session: session}, daycache.New())

	ch, _ := w.Start()
	last := terminalOf(t, drain(ch))

	if last.Type != EventFailed {
		t.Fatalf("terminal event = %v, expected Failed", last.Type)
	}
	if !errors.Is(last.Err, catalog.ErrListing) {
		t.Errorf("failure error = %v, expected to wrap ErrListing", last.Err)
	}
	if session.closes != 1 {
		t.Errorf("session closed %d times, expected exactly once", session.closes)
	}
}

func TestSingleDownloadFailureContinues(t *testing.T) {
	session := &fakeSession{
		files: map[string]string{
			"01_03_2025.csv": "01/03/2025 10:00,60,19.0,1011.0,41.0\n",
			"02_03_2025.csv": "02/03/2025 10:00,60,20.0,1010.0,40.0\n",
			"03_03_2025.csv": "03/03/2025 10:00,60,21.0,1009.0,39.0\n",
		},
		downloadErrs: map[string]error{
			"02_03_2025.csv": fmt.Errorf("%w: data connection reset", catalog.ErrTransfer),
		},
	}
	cache := daycache.New()
	w := New(&fakeDialer{session: session}, cache)

	ch, _ := w.Start()
	last := terminalOf(t, drain(ch))

	if last.Type != EventCompleted {
		t.Fatalf("terminal event = %v, expected Completed despite one bad file", last.Type)
	}
	if len(last.Result.Dates) != 2 {
		t.Errorf("result has %d dates, expected the 2 that downloaded", len(last.Result.Dates))
	}
	if _, ok := cache.Get(types.NewDateKey(2025, time.March, 2), types.VariantPrimary); ok {
		t.Error("failed download still ended up in the cache")
	}
}

func TestFailedRunPreservesEarlierCache(t *testing.T) {
	session := &fakeSession{files: map[string]string{
		"01_03_2025.csv": "01/03/2025 10:00,60,19.0,1011.0,41.0\n",
	}}
	dialer := &fakeDialer{session: session}
	cache := daycache.New()
	w := New(dialer, cache)

	ch, _ := w.Start()
	if last := terminalOf(t, drain(ch)); last.Type != EventCompleted {
		t.Fatalf("first run terminal = %v, expected Completed", last.Type)
	}

	// Second run cannot connect; the cached day must survive
	dialer.err = fmt.Errorf("%w: host unreachable", catalog.ErrNetwork)
	ch, _ = w.Start()
	if last := terminalOf(t, drain(ch)); last.Type != EventFailed {
		t.Fatalf("second run terminal = %v, expected Failed", last.Type)
	}

	if _, ok := cache.Get(types.NewDateKey(2025, time.March, 1), types.VariantPrimary); !ok {
		t.Error("earlier cache contents lost after a failed run")
	}
}
