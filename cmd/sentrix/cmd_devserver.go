package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/devserver"
)

func init() {
	rootCmd.AddCommand(devserverCmd)
	devserverCmd.Flags().String("listen", "", "listen address (overrides config)")
	devserverCmd.Flags().Duration("latency", 0, "delay added to every response")
}

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory SentriX backend for local development",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		listen := cfg.DevServer.Listen
		if v, _ := cmd.Flags().GetString("listen"); v != "" {
			listen = v
		}
		latency, _ := cmd.Flags().GetDuration("latency")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := devserver.New(devserver.Options{Latency: latency, Now: time.Now})
		slog.Info("devserver starting", "listen", listen, "latency", latency)
		return srv.Run(ctx, listen, os.Stdout)
	},
}
