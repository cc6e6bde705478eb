// internal/types/interfaces.go
package types

import (
	"context"
	"encoding/json"
	"io"
)

// Gateway is the set of backend calls the state layer depends on.
type Gateway interface {
	FetchDashboard(ctx context.Context) (*DashboardData, error)
	FetchReports(ctx context.Context) ([]Report, error)
	SendQuery(ctx context.Context, text string, sessionID SessionID) (*QueryResponse, error)
	DownloadReport(ctx context.Context, id ReportID, w io.Writer) (int64, error)
	UploadShipmentData(ctx context.Context, records []json.RawMessage) (*Ack, error)
	ResetShipmentData(ctx context.Context) (*Ack, error)
	TriggerCombinedReport(ctx context.Context) (*Ack, error)

	ListSessions(ctx context.Context) ([]Session, error)
	CreateSession(ctx context.Context, name, description string) (*Session, error)
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	UpdateSession(ctx context.Context, id SessionID, patch SessionPatch) (*Session, error)
	DeleteSession(ctx context.Context, id SessionID) error
}
