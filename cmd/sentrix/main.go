package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/config"
	"github.com/user/sentrix/internal/gateway"
	"github.com/user/sentrix/internal/render"
	"github.com/user/sentrix/internal/state"
	"github.com/user/sentrix/internal/types"
)

var (
	cfgPath      string
	sessionFlag  string
	apiURLFlag   string
	logLevelFlag string
	initTimeout  = 60 * time.Second
)

var rootCmd = &cobra.Command{
	Use:           "sentrix",
	Short:         "Supply chain risk client for the SentriX backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "session id to work in")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "backend URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applying command-line overrides. It exits
// on failure.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newGateway(cfg *config.Config) *gateway.Client {
	policy := &gateway.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: time.Duration(cfg.Retry.InitialDelayMs) * time.Millisecond,
		Multiplier:   cfg.Retry.Multiplier,
		MaxDelay:     time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
	}
	if policy.MaxAttempts < 1 {
		policy = gateway.NoRetry()
	}
	return gateway.New(cfg.APIURL,
		gateway.WithTimeout(cfg.RequestTimeout()),
		gateway.WithRetryPolicy(policy),
	)
}

func newRenderer(cfg *config.Config) (*render.Renderer, error) {
	return render.New(os.Stdout, render.Options{Style: cfg.Render.Style, WordWrap: cfg.Render.WordWrap})
}

// openStore initializes a store against the configured backend, waits for
// the initial load, and switches to --session when one is given. The caller
// must Dispose the store.
func openStore(ctx context.Context) (*state.Store, *config.Config, error) {
	cfg := loadConfig()
	setupLogging(cfg)

	store := state.New(newGateway(cfg))
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := store.WaitReady(waitCtx); err != nil {
		store.Dispose()
		return nil, nil, fmt.Errorf("wait for initial load: %w", err)
	}

	if sessionFlag != "" {
		if _, err := store.Sessions.SwitchToSession(ctx, types.SessionID(sessionFlag)); err != nil {
			store.Dispose()
			return nil, nil, fmt.Errorf("switch to session %s: %w", sessionFlag, err)
		}
	}
	return store, cfg, nil
}

// requireBackendSession fails when the store is still on its placeholder
// session, which the backend does not know about.
func requireBackendSession(store *state.Store) (types.Session, error) {
	sess, ok := store.Sessions.Current()
	if !ok || sess.Provisional {
		return types.Session{}, fmt.Errorf("no session selected; pass --session or create one with 'sentrix session create'")
	}
	return sess, nil
}
