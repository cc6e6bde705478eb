package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(shipmentCmd)
	shipmentCmd.AddCommand(shipmentUploadCmd, shipmentResetCmd)
}

var shipmentCmd = &cobra.Command{
	Use:   "shipment",
	Short: "Manage the backend's shipment dataset",
}

// parseShipmentFile accepts either a JSON array of records or an object
// with the records under "data".
func parseShipmentFile(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse shipment file: %w", err)
	}
	if wrapped.Data == nil {
		return nil, errors.New("parse shipment file: expected a JSON array or an object with a \"data\" array")
	}
	return wrapped.Data, nil
}

var shipmentUploadCmd = &cobra.Command{
	Use:   "upload <file.json>",
	Short: "Replace the shipment dataset with records from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read shipment file: %w", err)
		}
		records, err := parseShipmentFile(data)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, cfg, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		if _, err := store.UploadShipmentData(ctx, records); err != nil {
			return fmt.Errorf("upload shipment data: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Uploaded %d shipment record(s).\n\n", len(records))

		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Dashboard(store.Dashboard.Snapshot())
		return nil
	},
}

var shipmentResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the backend's sample shipment dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		if _, err := store.ResetShipmentData(ctx); err != nil {
			return fmt.Errorf("reset shipment data: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Shipment data reset to sample dataset.")
		return nil
	},
}
