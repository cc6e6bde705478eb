package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionCreateCmd, sessionShowCmd, sessionUpdateCmd, sessionDeleteCmd)

	sessionCreateCmd.Flags().String("description", "", "session description")
	sessionUpdateCmd.Flags().String("description", "", "new description")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage analysis sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer store.Dispose()

		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Sessions(store.Sessions.Roster(), store.Sessions.ActiveSessionID())
		return nil
	},
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		sess, err := store.Sessions.CreateSession(ctx, args[0], description)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Session %q created: %s\n", sess.Name, sess.SessionID)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a session (default: --session)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			sessionFlag = args[0]
		}
		store, cfg, err := openStore(context.Background())
		if err != nil {
			return err
		}
		defer store.Dispose()

		sess, ok := store.Sessions.Current()
		if !ok {
			return fmt.Errorf("no session")
		}
		r, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		r.Session(sess)
		if !sess.Provisional {
			fmt.Fprintln(os.Stdout)
			r.Reports(store.Reports.Reports())
		}
		return nil
	},
}

var sessionUpdateCmd = &cobra.Command{
	Use:     "update <id> <name>",
	Aliases: []string{"rename"},
	Short:   "Rename a session",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := types.SessionPatch{Name: &args[1]}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			patch.Description = &description
		}

		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		sess, err := store.Sessions.UpdateSession(ctx, types.SessionID(args[0]), patch)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Session %s renamed to %q.\n", sess.SessionID, sess.Name)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Dispose()

		if err := store.Sessions.DeleteSession(ctx, types.SessionID(args[0])); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Session %s deleted.\n", args[0])
		if sess, ok := store.Sessions.Current(); ok && sessionFlag == args[0] {
			fmt.Fprintf(os.Stdout, "Now in session %q (%s).\n", sess.Name, sess.SessionID)
		}
		return nil
	},
}
