// internal/types/ids.go
package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SessionID string
type ReportID string
type MessageID int64

// provisionalSuffixLen is the number of base36 characters after the timestamp
// in a provisional session id.
const provisionalSuffixLen = 9

// NewProvisionalSessionID returns a client-generated session id of the form
// SENTRIX-{unix millis}-{9 base36 chars}. It is used before the backend has
// assigned a real session.
func NewProvisionalSessionID() SessionID {
	return newProvisionalSessionID(time.Now())
}

func newProvisionalSessionID(now time.Time) SessionID {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8])
	suffix := strconv.FormatUint(n, 36)
	if len(suffix) > provisionalSuffixLen {
		suffix = suffix[len(suffix)-provisionalSuffixLen:]
	} else {
		suffix = strings.Repeat("0", provisionalSuffixLen-len(suffix)) + suffix
	}
	return SessionID(fmt.Sprintf("SENTRIX-%d-%s", now.UnixMilli(), suffix))
}

// IsProvisional reports whether the id was generated client-side.
func (id SessionID) IsProvisional() bool {
	return strings.HasPrefix(string(id), "SENTRIX-")
}
