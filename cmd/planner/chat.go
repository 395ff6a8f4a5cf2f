package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/events"
	"github.com/ashureev/eventplanner/internal/thread"
	"github.com/ashureev/eventplanner/internal/view"
)

var (
	chatDraftFile string
	chatSet       []string
	chatWatch     bool
)

func GetChatCommand() *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Generate a plan for the draft and ask follow-up questions",
		Long: `Generates an event plan from the cached draft, or from a YAML draft file,
then reads follow-up questions from stdin.

Type /status to show the session state, /reset to discard the session and
/quit to leave.

Example:
  planner chat --draft wedding.yaml --set guests=120`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
	chatCmd.Flags().StringVarP(&chatDraftFile, "draft", "d", "", "YAML file with the event draft")
	chatCmd.Flags().StringArrayVarP(&chatSet, "set", "s", nil, "Set a draft field (field=value), may be repeated")
	chatCmd.Flags().BoolVarP(&chatWatch, "watch", "w", false, "Print session changes from PLANNER_EVENTS_URL")
	return chatCmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if chatDraftFile != "" {
		d, err := loadDraftFile(chatDraftFile)
		if err != nil {
			return err
		}
		if err := a.mgr.SetDraft(ctx, d); err != nil {
			slog.Warn("Failed to cache draft", "error", err)
		}
	}
	if err := applyFields(ctx, a.mgr, chatSet); err != nil {
		return err
	}
	if a.mgr.Draft().IsZero() {
		return errors.New("the draft is empty: pass --draft or use 'planner draft set'")
	}

	out := cmd.OutOrStdout()
	if chatWatch && a.cfg.EventsURL != "" && a.userID() != "" {
		go func() {
			err := a.dir.Watch(ctx, a.cfg.EventsURL, a.userID(), func(ev events.Event) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s %s]\n", ev.Type, ev.ChatSessionID)
			})
			if err != nil && ctx.Err() == nil {
				slog.Warn("Session watch stopped", "error", err)
			}
		}()
	}

	return converse(ctx, a.mgr, cmd.InOrStdin(), out)
}

// converse runs the initial generation, then answers follow-ups read from in
// until EOF, /quit or /reset.
func converse(ctx context.Context, mgr *thread.Manager, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, view.Draft(mgr.Draft().Fields()))
	fmt.Fprintln(out)

	result, err := mgr.StartInitial(ctx)
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}
	fmt.Fprintln(out, view.Result(result))

	if mgr.Status().State != thread.StateReady {
		return nil
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/status":
			fmt.Fprintln(out, view.Status(mgr.Status()))
			continue
		case "/reset":
			if err := mgr.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Session reset.")
			return nil
		}

		turn, err := mgr.AskFollowUp(ctx, line)
		if err != nil {
			return fmt.Errorf("ask follow-up: %w", err)
		}
		if turn != nil {
			fmt.Fprintln(out, view.Turn(*turn))
		}
	}
}

func loadDraftFile(path string) (domain.EventDraft, error) {
	var d domain.EventDraft
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read draft: %w", err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse draft %s: %w", path, err)
	}
	return d, nil
}

// applyFields sets every field=value pair on the live draft.
func applyFields(ctx context.Context, mgr *thread.Manager, pairs []string) error {
	for _, kv := range pairs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid field %q: want field=value", kv)
		}
		if err := mgr.SetField(ctx, strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}
