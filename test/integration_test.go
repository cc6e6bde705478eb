//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/sentrix/internal/devserver"
	"github.com/user/sentrix/internal/gateway"
	"github.com/user/sentrix/internal/scheduler"
	"github.com/user/sentrix/internal/state"
	"github.com/user/sentrix/internal/types"
)

func newBackend(t *testing.T) (*devserver.Server, *gateway.Client) {
	t.Helper()
	srv := devserver.New(devserver.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	policy := &gateway.RetryPolicy{MaxAttempts: 2, InitialDelay: 10 * time.Millisecond, Multiplier: 1, MaxDelay: 10 * time.Millisecond}
	return srv, gateway.New(ts.URL, gateway.WithTimeout(5*time.Second), gateway.WithRetryPolicy(policy))
}

func newStore(t *testing.T, gw types.Gateway) *state.Store {
	t.Helper()
	store := state.New(gw)
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Dispose)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.WaitReady(ctx); err != nil {
		t.Fatalf("store never became ready: %v", err)
	}
	return store
}

func TestEndToEnd(t *testing.T) {
	_, gw := newBackend(t)
	store := newStore(t, gw)
	ctx := context.Background()

	// Initial load: placeholder session, sample dashboard, nothing else.
	sess, ok := store.Sessions.Current()
	if !ok || !sess.Provisional {
		t.Fatalf("expected a provisional session, got %+v", sess)
	}
	snap := store.Dashboard.Snapshot()
	if snap.Loading || snap.Error != "" {
		t.Fatalf("unexpected dashboard state loading=%v error=%q", snap.Loading, snap.Error)
	}
	if len(snap.ScheduleRisks) == 0 {
		t.Error("expected sample schedule risks")
	}

	// Create and enter a session.
	created, err := store.Sessions.CreateSession(ctx, "Trip A", "Q3 shipments")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Sessions.SwitchToSession(ctx, created.SessionID); err != nil {
		t.Fatal(err)
	}
	if store.Sessions.ActiveSessionID() != created.SessionID {
		t.Fatalf("expected active %s, got %s", created.SessionID, store.Sessions.ActiveSessionID())
	}

	// A plain question gets an assistant reply.
	reply, err := store.Transcript.SendAndAwaitReply(ctx, "Show risks")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != types.MessageTypeBot || reply.Content == "" {
		t.Errorf("unexpected reply %+v", reply)
	}

	// A report request lands in the session's report index.
	reply, err = store.Transcript.SendAndAwaitReply(ctx, "Generate a schedule risk report")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Content != "Analysis complete" {
		t.Errorf("expected fallback content for report reply, got %q", reply.Content)
	}
	reports := store.Reports.Reports()
	if len(reports) != 1 || reports[0].ReportType != types.ReportTypeSchedule {
		t.Fatalf("expected one schedule report, got %+v", reports)
	}
	if got := store.Reports.Filter("schedule", "all"); len(got) != 1 {
		t.Errorf("expected title search to match, got %d", len(got))
	}

	var pdf bytes.Buffer
	if _, err := store.Reports.Download(ctx, reports[0].ReportID, &pdf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")) {
		t.Error("expected a PDF download")
	}

	if msgs := store.Transcript.Messages(); len(msgs) != 4 {
		t.Errorf("expected 4 messages, got %d", len(msgs))
	}
	if hits := store.Transcript.Search("SHOW"); len(hits) != 1 {
		t.Errorf("expected 1 search hit, got %d", len(hits))
	}

	// Rename round-trips through the backend.
	name := "Trip A (final)"
	if _, err := store.Sessions.UpdateSession(ctx, created.SessionID, types.SessionPatch{Name: &name}); err != nil {
		t.Fatal(err)
	}
	if cur, _ := store.Sessions.Current(); cur.Name != name {
		t.Errorf("expected current session renamed, got %q", cur.Name)
	}

	// Deleting the active session moves to a fresh replacement.
	if err := store.Sessions.DeleteSession(ctx, created.SessionID); err != nil {
		t.Fatal(err)
	}
	cur, _ := store.Sessions.Current()
	if cur.SessionID == created.SessionID || cur.Name != "New Session" || cur.Provisional {
		t.Errorf("expected replacement session, got %+v", cur)
	}
	if len(store.Transcript.Messages()) != 0 || len(store.Reports.Reports()) != 0 {
		t.Error("expected transcript and reports cleared for the new session")
	}
	for _, s := range store.Sessions.Roster() {
		if s.SessionID == created.SessionID {
			t.Error("deleted session still in roster")
		}
	}
}

func TestShipmentUploadUpdatesDashboard(t *testing.T) {
	_, gw := newBackend(t)
	store := newStore(t, gw)
	ctx := context.Background()

	records := []json.RawMessage{
		json.RawMessage(`{"equipment_id":"FR1","country":"France","original_delivery_date":"2024-05-01","current_delivery_date":"2024-06-15"}`),
	}
	if _, err := store.UploadShipmentData(ctx, records); err != nil {
		t.Fatal(err)
	}
	snap := store.Dashboard.Snapshot()
	if len(snap.ScheduleRisks) != 1 || snap.ScheduleRisks[0].RiskLevel != 5 {
		t.Fatalf("expected one critical schedule risk, got %+v", snap.ScheduleRisks)
	}
	if _, ok := snap.WorldRiskData["France"]; !ok {
		t.Error("expected France on the risk map")
	}

	if _, err := store.ResetShipmentData(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Dashboard.Snapshot().WorldRiskData["France"]; ok {
		t.Error("expected sample data after reset")
	}
}

func TestDashboardFailureKeepsLastData(t *testing.T) {
	srv, gw := newBackend(t)
	store := newStore(t, gw)

	before := store.Dashboard.Snapshot()
	srv.Fail(http.MethodGet, "/api/dashboard", http.StatusServiceUnavailable, 2)

	if err := store.Dashboard.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail")
	}
	snap := store.Dashboard.Snapshot()
	if !strings.HasPrefix(snap.Error, "Failed to load dashboard data: ") {
		t.Errorf("unexpected error text %q", snap.Error)
	}
	if len(snap.ScheduleRisks) != len(before.ScheduleRisks) {
		t.Error("expected previous data to survive the failure")
	}

	if err := store.Dashboard.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.Dashboard.Snapshot().Error != "" {
		t.Error("expected error cleared after a successful refresh")
	}
}

func TestCombinedReport(t *testing.T) {
	_, gw := newBackend(t)
	store := newStore(t, gw)

	ack, err := store.GenerateCombinedReport(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ack.Report == nil || ack.Report.Title != "Comprehensive Risk Assessment Report" {
		t.Fatalf("unexpected ack %+v", ack)
	}
	all, err := gw.FetchReports(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 report on the backend, got %d", len(all))
	}
}

func TestWatchJobsRefresh(t *testing.T) {
	_, gw := newBackend(t)
	store := newStore(t, gw)

	refreshed := make(chan string, 4)
	jobs := scheduler.RefreshJobs(store, "* * * * * *", "")
	for i := range jobs {
		run, name := jobs[i].Run, jobs[i].Name
		jobs[i].Run = func(ctx context.Context) error {
			err := run(ctx)
			select {
			case refreshed <- name:
			default:
			}
			return err
		}
	}

	sched := scheduler.New(time.Second, jobs...)
	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	select {
	case name := <-refreshed:
		if name != "dashboard" {
			t.Errorf("expected the dashboard job, got %s", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no refresh ran")
	}
}
