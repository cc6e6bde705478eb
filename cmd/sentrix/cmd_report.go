package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/state"
	"github.com/user/sentrix/internal/types"
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd, reportShowCmd, reportDownloadCmd, reportCombinedCmd)

	reportListCmd.Flags().String("search", "", "match report id or title (case-insensitive)")
	reportListCmd.Flags().String("type", "all", "report type: all, political, schedule, combined, route")
	reportListCmd.Flags().Bool("all", false, "list reports from every session")
	reportDownloadCmd.Flags().StringP("output", "o", "", "output file (default sentrix_report_<id>.pdf)")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List, show and download risk reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current session's reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		typ, _ := cmd.Flags().GetString("type")
		all, _ := cmd.Flags().GetBool("all")

		if all {
			cfg := loadConfig()
			setupLogging(cfg)
			reports, err := newGateway(cfg).FetchReports(context.Background())
			if err != nil {
				return fmt.Errorf("list reports: %w", err)
			}
			r, err := newRenderer(cfg)
			if err != nil {
				return err
			}
			r.Reports(reports)
			return nil
		}

		store, cfg, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer store.Dispose()
		if _, err := requireBackendSession(store); err != nil {
			return err
		}

		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Reports(store.Reports.Filter(search, types.ReportType(typ)))
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		rep, err := newGateway(cfg).GetReport(context.Background(), types.ReportID(args[0]))
		if err != nil {
			return fmt.Errorf("get report: %w", err)
		}
		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Report(*rep)
		return nil
	},
}

var reportDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a report document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := types.ReportID(args[0])
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = state.DownloadFileName(id)
		}

		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		n, err := store.Reports.Download(ctx, id, f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(output)
			return fmt.Errorf("download report: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Saved %s (%d bytes).\n", output, n)
		return nil
	},
}

var reportCombinedCmd = &cobra.Command{
	Use:   "combined",
	Short: "Generate a combined political and schedule risk report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, cfg, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		ack, err := store.GenerateCombinedReport(ctx)
		if err != nil {
			return fmt.Errorf("generate combined report: %w", err)
		}
		if ack.Report == nil {
			fmt.Fprintln(os.Stdout, "Combined report requested.")
			return nil
		}
		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Report(*ack.Report)
		return nil
	},
}
