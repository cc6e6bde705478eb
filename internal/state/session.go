// internal/state/session.go
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/sentrix/internal/types"
)

// SessionStore owns the current session and the roster of known sessions.
type SessionStore struct {
	gw      types.Gateway
	st      *shared
	reports *ReportIndex
}

// Current returns a copy of the current session. ok is false before Init.
func (s *SessionStore) Current() (sess types.Session, ok bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.current == nil {
		return types.Session{}, false
	}
	return *s.st.current, true
}

// ActiveSessionID returns the id that scopes chat queries and the report index.
func (s *SessionStore) ActiveSessionID() types.SessionID {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.activeID
}

// Roster returns the known sessions, most recent first.
func (s *SessionStore) Roster() []types.Session {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return append([]types.Session{}, s.st.roster...)
}

// LoadSessions replaces the roster with the backend's list. Sessions created,
// updated or deleted while the list was in flight keep their local state. On
// failure the roster is left as it was.
func (s *SessionStore) LoadSessions(ctx context.Context) error {
	s.st.mu.Lock()
	gen := s.st.rosterGen
	s.st.mu.Unlock()

	list, err := s.gw.ListSessions(ctx)
	if err != nil {
		slog.Warn("failed to load sessions", "error", err)
		return err
	}

	s.st.mu.Lock()
	s.st.applyLoadedRosterLocked(list, gen)
	s.st.mu.Unlock()

	slog.Debug("sessions loaded", "count", len(list))
	return nil
}

// CreateSession creates a session and adds it to the front of the roster.
// It does not switch to it.
func (s *SessionStore) CreateSession(ctx context.Context, name, description string) (*types.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	created, err := s.gw.CreateSession(ctx, name, description)
	if err != nil {
		slog.Error("failed to create session", "name", name, "error", err)
		return nil, err
	}

	s.st.mu.Lock()
	s.st.roster = append([]types.Session{*created}, s.st.roster...)
	s.st.noteRosterChangeLocked(created.SessionID, created)
	s.st.mu.Unlock()

	slog.Info("session created", "session_id", created.SessionID, "name", created.Name)
	out := *created
	return &out, nil
}

// SwitchToSession makes id the current session. The transcript is cleared
// and the report index reloaded for the new session. If another switch was
// issued while this one was fetching, this one returns ErrSuperseded and
// changes nothing.
func (s *SessionStore) SwitchToSession(ctx context.Context, id types.SessionID) (*types.Session, error) {
	s.st.mu.Lock()
	s.st.switchSeq++
	seq := s.st.switchSeq
	s.st.mu.Unlock()

	sess, err := s.gw.GetSession(ctx, id)
	if err != nil {
		slog.Error("failed to switch session", "session_id", id, "error", err)
		return nil, err
	}

	s.st.mu.Lock()
	if seq != s.st.switchSeq {
		s.st.mu.Unlock()
		slog.Debug("session switch superseded", "session_id", id)
		return nil, ErrSuperseded
	}
	s.st.activateLocked(sess)
	s.st.mu.Unlock()

	slog.Info("switched session", "session_id", sess.SessionID)

	// The switch itself has landed; a failed reload only leaves the index empty.
	if err := s.reports.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		slog.Warn("failed to load reports after switch", "session_id", sess.SessionID, "error", err)
	}

	out := *sess
	return &out, nil
}

// UpdateSession changes a session's name and/or description. The roster
// entry and, if it matches, the current session are replaced with the
// backend's copy.
func (s *SessionStore) UpdateSession(ctx context.Context, id types.SessionID, patch types.SessionPatch) (*types.Session, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		patch.Name = &name
	}

	updated, err := s.gw.UpdateSession(ctx, id, patch)
	if err != nil {
		slog.Error("failed to update session", "session_id", id, "error", err)
		return nil, err
	}

	s.st.mu.Lock()
	for i := range s.st.roster {
		if s.st.roster[i].SessionID == id {
			s.st.roster[i] = *updated
		}
	}
	s.st.noteRosterChangeLocked(id, updated)
	if s.st.current != nil && s.st.current.SessionID == id {
		cur := *updated
		s.st.current = &cur
	}
	s.st.mu.Unlock()

	out := *updated
	return &out, nil
}

// DeleteSession deletes a session. Deleting the current session creates a
// replacement and switches to it; if that fails a provisional session is
// installed instead and the error is returned.
func (s *SessionStore) DeleteSession(ctx context.Context, id types.SessionID) error {
	if err := s.gw.DeleteSession(ctx, id); err != nil {
		slog.Error("failed to delete session", "session_id", id, "error", err)
		return err
	}

	s.st.mu.Lock()
	kept := s.st.roster[:0:0]
	for _, sess := range s.st.roster {
		if sess.SessionID != id {
			kept = append(kept, sess)
		}
	}
	s.st.roster = kept
	s.st.noteRosterChangeLocked(id, nil)
	wasCurrent := s.st.activeID == id
	s.st.mu.Unlock()

	slog.Info("session deleted", "session_id", id)
	if !wasCurrent {
		return nil
	}

	replacement, err := s.CreateSession(ctx, replacementSessionName, replacementSessionDesc)
	if err != nil {
		s.fallbackToProvisional(id)
		return fmt.Errorf("create replacement session: %w", err)
	}
	if _, err := s.SwitchToSession(ctx, replacement.SessionID); err != nil {
		if errors.Is(err, ErrSuperseded) {
			// Someone else switched in the meantime; their session is current.
			return nil
		}
		s.fallbackToProvisional(id)
		return fmt.Errorf("switch to replacement session: %w", err)
	}
	return nil
}

// fallbackToProvisional installs a provisional session if deleted is still active.
func (s *SessionStore) fallbackToProvisional(deleted types.SessionID) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.activeID != deleted {
		return
	}
	sess := s.st.installProvisionalLocked()
	slog.Warn("installed provisional session", "session_id", sess.SessionID)
}
