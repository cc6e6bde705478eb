package state

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/user/sentrix/internal/types"
)

var errBackend = errors.New("backend unavailable")

// fakeGateway implements types.Gateway with overridable functions. Unset
// functions return empty successful results.
type fakeGateway struct {
	fetchDashboard        func(ctx context.Context) (*types.DashboardData, error)
	fetchReports          func(ctx context.Context) ([]types.Report, error)
	sendQuery             func(ctx context.Context, text string, id types.SessionID) (*types.QueryResponse, error)
	downloadReport        func(ctx context.Context, id types.ReportID, w io.Writer) (int64, error)
	uploadShipmentData    func(ctx context.Context, records []json.RawMessage) (*types.Ack, error)
	resetShipmentData     func(ctx context.Context) (*types.Ack, error)
	triggerCombinedReport func(ctx context.Context) (*types.Ack, error)
	listSessions          func(ctx context.Context) ([]types.Session, error)
	createSession         func(ctx context.Context, name, desc string) (*types.Session, error)
	getSession            func(ctx context.Context, id types.SessionID) (*types.Session, error)
	updateSession         func(ctx context.Context, id types.SessionID, patch types.SessionPatch) (*types.Session, error)
	deleteSession         func(ctx context.Context, id types.SessionID) error
}

var _ types.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) FetchDashboard(ctx context.Context) (*types.DashboardData, error) {
	if f.fetchDashboard != nil {
		return f.fetchDashboard(ctx)
	}
	data := &types.DashboardData{}
	data.Normalize()
	return data, nil
}

func (f *fakeGateway) FetchReports(ctx context.Context) ([]types.Report, error) {
	if f.fetchReports != nil {
		return f.fetchReports(ctx)
	}
	return []types.Report{}, nil
}

func (f *fakeGateway) SendQuery(ctx context.Context, text string, id types.SessionID) (*types.QueryResponse, error) {
	if f.sendQuery != nil {
		return f.sendQuery(ctx, text, id)
	}
	return &types.QueryResponse{Type: "info"}, nil
}

func (f *fakeGateway) DownloadReport(ctx context.Context, id types.ReportID, w io.Writer) (int64, error) {
	if f.downloadReport != nil {
		return f.downloadReport(ctx, id, w)
	}
	return 0, nil
}

func (f *fakeGateway) UploadShipmentData(ctx context.Context, records []json.RawMessage) (*types.Ack, error) {
	if f.uploadShipmentData != nil {
		return f.uploadShipmentData(ctx, records)
	}
	return &types.Ack{Status: "success", Items: len(records)}, nil
}

func (f *fakeGateway) ResetShipmentData(ctx context.Context) (*types.Ack, error) {
	if f.resetShipmentData != nil {
		return f.resetShipmentData(ctx)
	}
	return &types.Ack{Status: "success"}, nil
}

func (f *fakeGateway) TriggerCombinedReport(ctx context.Context) (*types.Ack, error) {
	if f.triggerCombinedReport != nil {
		return f.triggerCombinedReport(ctx)
	}
	return &types.Ack{Status: "success"}, nil
}

func (f *fakeGateway) ListSessions(ctx context.Context) ([]types.Session, error) {
	if f.listSessions != nil {
		return f.listSessions(ctx)
	}
	return []types.Session{}, nil
}

func (f *fakeGateway) CreateSession(ctx context.Context, name, desc string) (*types.Session, error) {
	if f.createSession != nil {
		return f.createSession(ctx, name, desc)
	}
	return &types.Session{SessionID: types.SessionID("id-" + name), Name: name, Description: desc, IsActive: true}, nil
}

func (f *fakeGateway) GetSession(ctx context.Context, id types.SessionID) (*types.Session, error) {
	if f.getSession != nil {
		return f.getSession(ctx, id)
	}
	return &types.Session{SessionID: id, Name: string(id), IsActive: true}, nil
}

func (f *fakeGateway) UpdateSession(ctx context.Context, id types.SessionID, patch types.SessionPatch) (*types.Session, error) {
	if f.updateSession != nil {
		return f.updateSession(ctx, id, patch)
	}
	sess := &types.Session{SessionID: id}
	if patch.Name != nil {
		sess.Name = *patch.Name
	}
	if patch.Description != nil {
		sess.Description = *patch.Description
	}
	return sess, nil
}

func (f *fakeGateway) DeleteSession(ctx context.Context, id types.SessionID) error {
	if f.deleteSession != nil {
		return f.deleteSession(ctx, id)
	}
	return nil
}

// newReadyStore returns an initialized store whose initial load has settled.
func newReadyStore(t *testing.T, gw types.Gateway) *Store {
	t.Helper()
	s := New(gw)
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Dispose)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitReady(ctx); err != nil {
		t.Fatalf("store not ready: %v", err)
	}
	return s
}

// waitFor fails the test if ch is not closed or signalled within a second.
func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
