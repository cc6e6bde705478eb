package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/user/sentrix/internal/types"
)

const (
	// fallbackReply is used when a successful response carries no message.
	fallbackReply = "Analysis complete"
	// errorReply stands in for the bot's answer when the query fails.
	errorReply = "Sorry, I encountered an error processing your request."
)

// Transcript is the ordered chat log of the active session.
type Transcript struct {
	gw      types.Gateway
	st      *shared
	reports *ReportIndex
	now     func() time.Time
}

// Append adds a message and returns it. Ids are strictly increasing.
func (t *Transcript) Append(typ types.MessageType, content string, data json.RawMessage) types.ChatMessage {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.appendLocked(typ, content, data)
}

func (t *Transcript) appendLocked(typ types.MessageType, content string, data json.RawMessage) types.ChatMessage {
	ts := t.now()
	id := types.MessageID(ts.UnixMilli())
	if id <= t.st.lastMsgID {
		id = t.st.lastMsgID + 1
	}
	t.st.lastMsgID = id

	msg := types.ChatMessage{
		ID:        id,
		Type:      typ,
		Content:   content,
		Timestamp: ts,
		Data:      append(json.RawMessage(nil), data...),
	}
	t.st.messages = append(t.st.messages, msg)
	return msg
}

// SendAndAwaitReply appends text as a user message, sends it for the active
// session and appends the bot's reply. A failed query appends an apology
// instead and returns the error. If the active session changed while the
// query was in flight the reply is dropped and ErrSuperseded returned.
func (t *Transcript) SendAndAwaitReply(ctx context.Context, text string) (types.ChatMessage, error) {
	t.st.mu.Lock()
	sessionID, epoch := t.st.scopeLocked()
	if sessionID == "" {
		t.st.mu.Unlock()
		return types.ChatMessage{}, ErrNotInitialized
	}
	t.appendLocked(types.MessageTypeUser, text, nil)
	t.st.mu.Unlock()

	resp, err := t.gw.SendQuery(ctx, text, sessionID)

	t.st.mu.Lock()
	if t.st.epoch != epoch {
		t.st.mu.Unlock()
		slog.Debug("chat reply dropped after session switch", "session_id", sessionID)
		return types.ChatMessage{}, ErrSuperseded
	}
	if err != nil {
		reply := t.appendLocked(types.MessageTypeBot, errorReply, nil)
		t.st.mu.Unlock()
		slog.Error("chat query failed", "session_id", sessionID, "error", err)
		return reply, err
	}
	content := resp.Message()
	if content == "" {
		content = fallbackReply
	}
	reply := t.appendLocked(types.MessageTypeBot, content, resp.Raw)
	t.st.mu.Unlock()

	if resp.Type == types.ResponseTypeReport {
		if err := t.reports.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			slog.Warn("failed to reload reports after chat", "session_id", sessionID, "error", err)
		}
	}
	return reply, nil
}

// Clear removes every message.
func (t *Transcript) Clear() {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	t.st.messages = nil
}

// Messages returns the transcript oldest first.
func (t *Transcript) Messages() []types.ChatMessage {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return append([]types.ChatMessage{}, t.st.messages...)
}

// Search returns the messages whose content contains q, ignoring case.
// An empty query matches everything.
func (t *Transcript) Search(q string) []types.ChatMessage {
	q = strings.ToLower(strings.TrimSpace(q))

	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	out := []types.ChatMessage{}
	for _, msg := range t.st.messages {
		if q == "" || strings.Contains(strings.ToLower(msg.Content), q) {
			out = append(out, msg)
		}
	}
	return out
}
