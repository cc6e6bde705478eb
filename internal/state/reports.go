package state

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/user/sentrix/internal/types"
)

// ReportIndex lists the reports that belong to the active session.
type ReportIndex struct {
	gw types.Gateway
	st *shared
}

// Reports returns the current list.
func (r *ReportIndex) Reports() []types.Report {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]types.Report{}, r.st.reports...)
}

// Refresh reloads the reports and keeps those of the active session. The
// result is discarded if the active session changed or a later refresh has
// already been applied.
func (r *ReportIndex) Refresh(ctx context.Context) error {
	r.st.mu.Lock()
	sessionID, epoch := r.st.scopeLocked()
	if sessionID == "" {
		r.st.mu.Unlock()
		return ErrNotInitialized
	}
	r.st.reportsIssued++
	seq := r.st.reportsIssued
	r.st.mu.Unlock()

	all, err := r.gw.FetchReports(ctx)
	if err != nil {
		slog.Warn("failed to load reports", "session_id", sessionID, "error", err)
		return err
	}

	own := []types.Report{}
	for _, rep := range all {
		if rep.SessionID == sessionID {
			own = append(own, rep)
		}
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.epoch != epoch {
		return ErrSuperseded
	}
	if seq < r.st.reportsApplied {
		return nil
	}
	r.st.reportsApplied = seq
	r.st.reports = own

	slog.Debug("reports loaded", "session_id", sessionID, "count", len(own))
	return nil
}

// Download writes report id's document to w.
func (r *ReportIndex) Download(ctx context.Context, id types.ReportID, w io.Writer) (int64, error) {
	n, err := r.gw.DownloadReport(ctx, id, w)
	if err != nil {
		slog.Error("failed to download report", "report_id", id, "error", err)
		return n, err
	}
	slog.Info("report downloaded", "report_id", id, "bytes", n)
	return n, nil
}

// Filter returns the reports whose id or title contains search (ignoring
// case) and whose type is typ. An empty typ or "all" matches every type.
func (r *ReportIndex) Filter(search string, typ types.ReportType) []types.Report {
	search = strings.ToLower(strings.TrimSpace(search))
	anyType := typ == "" || typ == "all"

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	out := []types.Report{}
	for _, rep := range r.st.reports {
		if !anyType && rep.ReportType != typ {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(string(rep.ReportID)), search) &&
			!strings.Contains(strings.ToLower(rep.Title), search) {
			continue
		}
		out = append(out, rep)
	}
	return out
}

// DownloadFileName is the file name used when saving a report document.
func DownloadFileName(id types.ReportID) string {
	return "sentrix_report_" + string(id) + ".pdf"
}
