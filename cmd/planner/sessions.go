package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/eventplanner/internal/view"
)

var (
	sessionsShowHTML bool
	errNoUser        = errors.New("no user id: set PLANNER_USER_ID or pass --user")
)

func GetSessionsCommand() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List, view and delete recorded sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.userID() == "" {
				return errNoUser
			}

			fmt.Fprintln(cmd.OutOrStdout(), view.Sessions(a.dir.List(cmd.Context(), a.userID())))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <chat-session-id>",
		Short: "Replay a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.userID() == "" {
				return errNoUser
			}

			rec, ok := a.dir.SelectByID(cmd.Context(), a.userID(), args[0])
			if !ok {
				return fmt.Errorf("session %s not found", args[0])
			}
			history := a.mgr.SelectHistorical(rec)
			if sessionsShowHTML {
				for _, e := range history.Entries {
					fmt.Fprintln(cmd.OutOrStdout(), e.Result.HTML())
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.History(history))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&sessionsShowHTML, "html", false, "Print each entry as HTML")

	deleteCmd := &cobra.Command{
		Use:   "delete <chat-session-id>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.userID() == "" {
				return errNoUser
			}

			if !a.dir.Delete(cmd.Context(), args[0], a.userID()) {
				return fmt.Errorf("could not delete session %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	sessionsCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return sessionsCmd
}
