// internal/state/shared.go
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/user/sentrix/internal/types"
)

var (
	// ErrEmptyName is returned when a session name is blank.
	ErrEmptyName = errors.New("session name must not be empty")

	// ErrSuperseded is returned when the active session changed while a
	// request was in flight; its result was not applied.
	ErrSuperseded = errors.New("superseded by a session switch")

	// ErrNotInitialized is returned by session-scoped operations before Init.
	ErrNotInitialized = errors.New("store not initialized")
)

const (
	provisionalSessionName = "Untitled Session"
	replacementSessionName = "New Session"
	replacementSessionDesc = "Auto-created session"
)

// shared is the state every component reads and writes.
type shared struct {
	mu sync.Mutex

	// switchSeq counts issued session switches; only the latest may apply.
	switchSeq uint64
	// epoch advances whenever the active session changes. Session-scoped
	// requests capture it at issue time and drop their result if it moved.
	epoch uint64

	activeID types.SessionID
	current  *types.Session
	roster   []types.Session
	// rosterGen advances on every local roster change. edited and deleted
	// record those changes until a roster load issued after them lands.
	rosterGen uint64
	edited    map[types.SessionID]types.Session
	deleted   map[types.SessionID]bool

	messages  []types.ChatMessage
	lastMsgID types.MessageID

	reports        []types.Report
	reportsIssued  uint64
	reportsApplied uint64

	snapshot    types.Snapshot
	dashIssued  uint64
	dashApplied uint64
}

func newShared() *shared {
	st := &shared{
		roster:  []types.Session{},
		edited:  map[types.SessionID]types.Session{},
		deleted: map[types.SessionID]bool{},
		reports: []types.Report{},
	}
	st.snapshot.DashboardData.Normalize()
	st.snapshot.Loading = true
	return st
}

// activateLocked makes sess the current session, clearing everything scoped
// to the previous one. Caller must hold mu.
func (st *shared) activateLocked(sess *types.Session) {
	st.epoch++
	st.activeID = sess.SessionID
	st.current = sess
	st.messages = nil
	st.reports = []types.Report{}
}

// installProvisionalLocked activates a client-generated placeholder session.
// Caller must hold mu.
func (st *shared) installProvisionalLocked() *types.Session {
	now := types.NewTimestamp(time.Now())
	sess := &types.Session{
		SessionID:    types.NewProvisionalSessionID(),
		Name:         provisionalSessionName,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     true,
		LastActivity: now,
		Provisional:  true,
	}
	st.activateLocked(sess)
	return sess
}

// noteRosterChangeLocked records a local edit (or deletion, when sess is
// nil) of id. Caller must hold mu.
func (st *shared) noteRosterChangeLocked(id types.SessionID, sess *types.Session) {
	st.rosterGen++
	if sess == nil {
		delete(st.edited, id)
		st.deleted[id] = true
		return
	}
	st.edited[id] = *sess
}

// applyLoadedRosterLocked installs a roster fetched from the backend. gen is
// rosterGen when the fetch was issued. If the roster changed locally since,
// local entries win, local edits replace stale loaded copies and locally
// deleted sessions stay out. Caller must hold mu.
func (st *shared) applyLoadedRosterLocked(loaded []types.Session, gen uint64) {
	if gen == st.rosterGen {
		st.roster = append([]types.Session{}, loaded...)
		clear(st.edited)
		clear(st.deleted)
		return
	}

	out := append([]types.Session{}, st.roster...)
	known := make(map[types.SessionID]bool, len(out))
	for _, sess := range out {
		known[sess.SessionID] = true
	}
	for _, sess := range loaded {
		if known[sess.SessionID] || st.deleted[sess.SessionID] {
			continue
		}
		if edit, ok := st.edited[sess.SessionID]; ok {
			sess = edit
		}
		known[sess.SessionID] = true
		out = append(out, sess)
	}
	st.roster = out
}

// scopeLocked returns the active session id and epoch. Caller must hold mu.
func (st *shared) scopeLocked() (types.SessionID, uint64) {
	return st.activeID, st.epoch
}
