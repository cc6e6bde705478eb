package state

import (
	"context"
	"log/slog"

	"github.com/user/sentrix/internal/types"
)

const dashboardErrorPrefix = "Failed to load dashboard data: "

// DashboardCache holds the most recent dashboard snapshot.
type DashboardCache struct {
	gw types.Gateway
	st *shared
}

// Snapshot returns a deep copy of the current snapshot.
func (d *DashboardCache) Snapshot() types.Snapshot {
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	snap := d.st.snapshot
	snap.DashboardData = snap.DashboardData.Clone()
	return snap
}

// Refresh fetches the dashboard. On failure the previous data is kept and
// the snapshot's Error is set. When refreshes overlap, a result never
// overwrites one from a later-issued refresh, and Loading stays set until
// the latest one settles.
func (d *DashboardCache) Refresh(ctx context.Context) error {
	d.st.mu.Lock()
	d.st.dashIssued++
	seq := d.st.dashIssued
	d.st.snapshot.Loading = true
	d.st.snapshot.Error = ""
	d.st.mu.Unlock()

	data, err := d.gw.FetchDashboard(ctx)
	if err == nil && data == nil {
		data = &types.DashboardData{}
	}

	d.st.mu.Lock()
	defer d.st.mu.Unlock()

	if seq > d.st.dashApplied {
		d.st.dashApplied = seq
		if err != nil {
			d.st.snapshot.Error = dashboardErrorPrefix + err.Error()
		} else {
			fresh := data.Clone()
			fresh.Normalize()
			d.st.snapshot.DashboardData = fresh
			d.st.snapshot.Error = ""
		}
	}
	if seq == d.st.dashIssued {
		d.st.snapshot.Loading = false
	}

	if err != nil {
		slog.Warn("failed to load dashboard", "error", err)
		return err
	}
	slog.Debug("dashboard loaded",
		"countries", len(data.WorldRiskData),
		"political_risks", len(data.PoliticalRisks),
		"schedule_risks", len(data.ScheduleRisks))
	return nil
}
