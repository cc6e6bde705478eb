package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/scheduler"
	"github.com/user/sentrix/internal/state"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("dashboard-schedule", "", "cron schedule for dashboard refreshes (overrides config)")
	watchCmd.Flags().String("reports-schedule", "", "cron schedule for report refreshes (overrides config)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the dashboard and report list current on a schedule",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Dispose()

	dashSched := cfg.Watch.DashboardSchedule
	if v, _ := cmd.Flags().GetString("dashboard-schedule"); v != "" {
		dashSched = v
	}
	reportsSched := cfg.Watch.ReportsSchedule
	if v, _ := cmd.Flags().GetString("reports-schedule"); v != "" {
		reportsSched = v
	}

	r, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	var outMu sync.Mutex
	show := func(view func()) {
		outMu.Lock()
		defer outMu.Unlock()
		view()
		fmt.Fprintln(os.Stdout)
	}
	showDashboard := func() { show(func() { r.Dashboard(store.Dashboard.Snapshot()) }) }
	showReports := func() { show(func() { r.Reports(store.Reports.Reports()) }) }

	jobs := scheduler.RefreshJobs(store, dashSched, reportsSched)
	for i := range jobs {
		jobs[i].Run = thenShow(jobs[i].Run, jobs[i].Name, showDashboard, showReports)
	}

	sched := scheduler.New(cfg.RequestTimeout(), jobs...)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	slog.Info("watching", "api_url", cfg.APIURL, "session_id", store.Sessions.ActiveSessionID(),
		"dashboard_schedule", dashSched, "reports_schedule", reportsSched)
	showDashboard()
	if sess, ok := store.Sessions.Current(); ok && !sess.Provisional {
		showReports()
	}

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// thenShow wraps a refresh job so that its view is printed after each
// successful run.
func thenShow(run func(context.Context) error, name string, showDashboard, showReports func()) func(context.Context) error {
	return func(ctx context.Context) error {
		err := run(ctx)
		if err != nil && !errors.Is(err, state.ErrSuperseded) && !errors.Is(err, state.ErrNotInitialized) {
			return err
		}
		switch name {
		case "dashboard":
			showDashboard()
		case "reports":
			if err == nil {
				showReports()
			}
		}
		return nil
	}
}
