// internal/state/store.go
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/sentrix/internal/types"
)

// Phase is the store's lifecycle stage.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Store composes the session, dashboard, transcript and report state over
// one gateway. Create it with New, then call Init once.
type Store struct {
	Sessions   *SessionStore
	Dashboard  *DashboardCache
	Transcript *Transcript
	Reports    *ReportIndex

	gw types.Gateway
	st *shared

	lifeMu sync.Mutex
	phase  Phase
	cancel context.CancelFunc
	done   chan struct{}
	ready  chan struct{}
}

// New creates an uninitialized Store.
func New(gw types.Gateway) *Store {
	st := newShared()
	reports := &ReportIndex{gw: gw, st: st}
	return &Store{
		Sessions:   &SessionStore{gw: gw, st: st, reports: reports},
		Dashboard:  &DashboardCache{gw: gw, st: st},
		Transcript: &Transcript{gw: gw, st: st, reports: reports, now: time.Now},
		Reports:    reports,
		gw:         gw,
		st:         st,
		ready:      make(chan struct{}),
	}
}

// Init installs a provisional session and starts loading the roster, the
// dashboard and the reports in the background. It returns immediately; Ready
// is closed once all three loads have settled. Load failures are logged and
// reflected in component state, not returned. ctx bounds the background work.
func (s *Store) Init(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.phase != PhaseUninitialized {
		return fmt.Errorf("init store: already %s", s.phase)
	}

	s.st.mu.Lock()
	sess := s.st.installProvisionalLocked()
	s.st.mu.Unlock()
	slog.Info("store initializing", "session_id", sess.SessionID)

	bg, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.phase = PhaseInitializing

	go func() {
		defer close(s.done)

		// Failures are per-component; none of them should cancel the others.
		var g errgroup.Group
		g.Go(func() error { return s.Sessions.LoadSessions(bg) })
		g.Go(func() error { return s.Dashboard.Refresh(bg) })
		g.Go(func() error { return s.Reports.Refresh(bg) })
		if err := g.Wait(); err != nil && !errors.Is(err, ErrSuperseded) {
			slog.Warn("initial load incomplete", "error", err)
		}

		s.lifeMu.Lock()
		if s.phase == PhaseInitializing {
			s.phase = PhaseReady
		}
		s.lifeMu.Unlock()
		close(s.ready)
		slog.Debug("store ready")
	}()
	return nil
}

// Ready is closed when the initial load has settled.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the initial load has settled or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Phase returns the lifecycle stage.
func (s *Store) Phase() Phase {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.phase
}

// Dispose cancels background work started by Init and waits for it.
// It is safe to call more than once.
func (s *Store) Dispose() {
	s.lifeMu.Lock()
	cancel, done := s.cancel, s.done
	s.phase = PhaseDisposed
	s.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// UploadShipmentData replaces the backend's shipment records and reloads the dashboard.
func (s *Store) UploadShipmentData(ctx context.Context, records []json.RawMessage) (*types.Ack, error) {
	ack, err := s.gw.UploadShipmentData(ctx, records)
	if err != nil {
		slog.Error("failed to upload shipment data", "records", len(records), "error", err)
		return nil, err
	}
	slog.Info("shipment data uploaded", "records", len(records))
	_ = s.Dashboard.Refresh(ctx)
	return ack, nil
}

// ResetShipmentData restores the backend's sample shipment records and reloads the dashboard.
func (s *Store) ResetShipmentData(ctx context.Context) (*types.Ack, error) {
	ack, err := s.gw.ResetShipmentData(ctx)
	if err != nil {
		slog.Error("failed to reset shipment data", "error", err)
		return nil, err
	}
	_ = s.Dashboard.Refresh(ctx)
	return ack, nil
}

// GenerateCombinedReport triggers a combined report and reloads the report index.
func (s *Store) GenerateCombinedReport(ctx context.Context) (*types.Ack, error) {
	ack, err := s.gw.TriggerCombinedReport(ctx)
	if err != nil {
		slog.Error("failed to generate combined report", "error", err)
		return nil, err
	}
	if err := s.Reports.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		slog.Warn("failed to reload reports after combined report", "error", err)
	}
	return ack, nil
}
