package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/sentrix/internal/export"
	"github.com/user/sentrix/internal/render"
	"github.com/user/sentrix/internal/state"
	"github.com/user/sentrix/internal/types"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("export", "", "after a one-shot query, export the transcript in this format (jsonl, md, yaml, json)")
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the risk assistant; starts an interactive prompt without a message",
	RunE:  runChat,
}

const chatHelp = `Commands:
  /search <text>          show messages containing text
  /export <format> [file] write the transcript (jsonl, md, yaml, json)
  /switch <session-id>    continue in another session
  /new <name>             create a session and switch to it
  /reports                list this session's reports
  /clear                  clear the transcript
  /quit                   exit`

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Dispose()

	r, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		if err := ask(ctx, store, r, strings.Join(args, " ")); err != nil {
			return err
		}
		if format, _ := cmd.Flags().GetString("export"); format != "" {
			return exportTranscript(store, format, "")
		}
		return nil
	}
	return chatLoop(ctx, store, r, os.Stdin)
}

// ask sends one query and prints the reply, including any report it carries.
func ask(ctx context.Context, store *state.Store, r *render.Renderer, text string) error {
	reply, err := store.Transcript.SendAndAwaitReply(ctx, text)
	if errors.Is(err, state.ErrSuperseded) {
		return nil
	}
	if reply.ID != 0 {
		r.Message(reply)
	}
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	var resp types.QueryResponse
	if len(reply.Data) > 0 && json.Unmarshal(reply.Data, &resp) == nil && resp.Report != nil {
		r.Report(*resp.Report)
	}
	return nil
}

func chatLoop(ctx context.Context, store *state.Store, r *render.Renderer, in io.Reader) error {
	if sess, ok := store.Sessions.Current(); ok {
		fmt.Fprintf(os.Stdout, "Session %q (%s). Type /help for commands.\n", sess.Name, sess.SessionID)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := ask(ctx, store, r, line); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			continue
		}

		name, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		var err error
		switch name {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(os.Stdout, chatHelp)
		case "/search":
			hits := store.Transcript.Search(rest)
			if len(hits) == 0 {
				fmt.Fprintln(os.Stdout, "No matching messages.")
			}
			for _, msg := range hits {
				r.Message(msg)
			}
		case "/export":
			format, file, _ := strings.Cut(rest, " ")
			if format == "" {
				format = "md"
			}
			err = exportTranscript(store, format, strings.TrimSpace(file))
		case "/switch":
			var sess *types.Session
			sess, err = store.Sessions.SwitchToSession(ctx, types.SessionID(rest))
			if err == nil {
				fmt.Fprintf(os.Stdout, "Switched to %q (%s).\n", sess.Name, sess.SessionID)
			}
		case "/new":
			var sess *types.Session
			sess, err = store.Sessions.CreateSession(ctx, rest, "")
			if err == nil {
				_, err = store.Sessions.SwitchToSession(ctx, sess.SessionID)
			}
			if err == nil {
				fmt.Fprintf(os.Stdout, "Now in new session %q (%s).\n", sess.Name, sess.SessionID)
			}
		case "/reports":
			r.Reports(store.Reports.Reports())
		case "/clear":
			store.Transcript.Clear()
			fmt.Fprintln(os.Stdout, "Transcript cleared.")
		default:
			fmt.Fprintf(os.Stdout, "Unknown command %s. Type /help for commands.\n", name)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
}

// exportTranscript writes the active session's transcript and reports to
// file, or to the default file name when file is empty.
func exportTranscript(store *state.Store, format, file string) error {
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	sess, _ := store.Sessions.Current()
	doc := &export.Document{
		Session:    sess,
		Messages:   store.Transcript.Messages(),
		Reports:    store.Reports.Reports(),
		ExportedAt: time.Now(),
	}
	if file == "" {
		file = export.FileName(doc, exporter)
	}

	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := exporter.Export(doc, f); err != nil {
		f.Close()
		return fmt.Errorf("export transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported %d message(s) to %s.\n", len(doc.Messages), file)
	return nil
}
