package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().Bool("json", false, "print the raw snapshot as JSON")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show world, political and schedule risk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		store, cfg, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer store.Dispose()

		snap := store.Dashboard.Snapshot()
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Dashboard(snap)
		return nil
	},
}
