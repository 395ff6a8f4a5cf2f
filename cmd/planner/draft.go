package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/view"
)

var draftShowYAML bool

func GetDraftCommand() *cobra.Command {
	draftCmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or edit the cached event draft",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cached draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			d := a.mgr.Draft()
			if draftShowYAML {
				out, err := yaml.Marshal(d)
				if err != nil {
					return fmt.Errorf("encode draft: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Draft(d.Fields()))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&draftShowYAML, "yaml", false, "Print the draft as YAML, suitable for --draft")

	setCmd := &cobra.Command{
		Use:   "set field=value...",
		Short: "Set one or more draft fields",
		Long: `Sets draft fields by name: eventType, date, endDate, duration, guests,
budget, location, culture, description.

Example:
  planner draft set eventType=wedding guests=120 "location=Lake Como"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := applyFields(cmd.Context(), a.mgr, args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Draft(a.mgr.Draft().Fields()))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the cached draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.mgr.SetDraft(cmd.Context(), domain.EventDraft{})
		},
	}

	draftCmd.AddCommand(showCmd, setCmd, clearCmd)
	return draftCmd
}

func GetPromptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt compiled from the cached draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprint(cmd.OutOrStdout(), a.compiler.Compile(a.mgr.Draft()))
			return nil
		},
	}
}
