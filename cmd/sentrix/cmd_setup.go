package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/config"
	"github.com/user/sentrix/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("SentriX Setup")
		fmt.Println("Press Enter to keep the value shown in brackets.")
		fmt.Println()

		cfg.APIURL = prompt(os.Stdout, scanner, "Backend URL", cfg.APIURL)
		if n, err := strconv.Atoi(prompt(os.Stdout, scanner, "Request timeout (seconds)", strconv.Itoa(cfg.RequestTimeoutSeconds))); err == nil {
			cfg.RequestTimeoutSeconds = n
		}
		cfg.Watch.DashboardSchedule = prompt(os.Stdout, scanner, "Dashboard refresh schedule", cfg.Watch.DashboardSchedule)
		cfg.Watch.ReportsSchedule = prompt(os.Stdout, scanner, "Report refresh schedule", cfg.Watch.ReportsSchedule)
		cfg.Render.Style = prompt(os.Stdout, scanner, "Render style (auto, dark, light, plain)", cfg.Render.Style)

		if err := scheduler.Validate([]scheduler.Job{
			{Name: "dashboard", Schedule: cfg.Watch.DashboardSchedule},
			{Name: "reports", Schedule: cfg.Watch.ReportsSchedule},
		}); err != nil {
			return err
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt writes a labeled prompt with a default value and reads one line.
// Empty input keeps the default.
func prompt(w io.Writer, scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, defaultVal)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	if scanner.Scan() {
		if input := strings.TrimSpace(scanner.Text()); input != "" {
			return input
		}
	}
	return defaultVal
}
