package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/teamboard/internal/presentation/tree"
	"github.com/aretw0/teamboard/internal/presentation/tui"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/runner"
	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Manage teams and their capabilities",
}

var teamsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		teams, err := a.board.ListTeams(cmd.Context())
		if err != nil {
			return err
		}
		if f, _ := cmd.Flags().GetString("format"); f == "json" {
			return printJSON(cmd, teams)
		}

		if len(teams) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No teams found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCAPABILITIES")
		for _, t := range teams {
			fmt.Fprintf(w, "%s\t%s\t%d\n", t.ID, t.Name, len(t.Capabilities))
		}
		return w.Flush()
	},
}

var teamsShowCmd = &cobra.Command{
	Use:   "show <team-id>",
	Short: "Show a team card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.board.GetTeam(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if f, _ := cmd.Flags().GetString("format"); f == "json" {
			return printJSON(cmd, t)
		}
		return printMarkdown(cmd, tree.Team(t, a.board.Taxonomy()))
	},
}

var teamsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		description, _ := cmd.Flags().GetString("description")
		capabilities, _ := cmd.Flags().GetStringSlice("capability")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.board.CreateTeam(cmd.Context(), &domain.Team{
			ID:           id,
			Name:         args[0],
			Description:  description,
			Capabilities: capabilities,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return nil
	},
}

var teamsRmCmd = &cobra.Command{
	Use:   "rm <team-id>...",
	Short: "Remove one or more teams",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		failed := 0
		for _, id := range args {
			if err := a.board.DeleteTeam(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed team '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d teams could not be removed", failed, len(args))
		}
		return nil
	},
}

var teamsPickCmd = &cobra.Command{
	Use:   "pick <team-id>",
	Short: "Pick the capabilities of a team",
	Long: `Opens the capability picker for a team. On a terminal it runs full screen;
otherwise, or when --toggle is given, the filter flags and toggles are applied in
order and the resulting selection is saved. With --json it reads one JSON command
per line from stdin and writes one JSON frame per line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		team, err := a.board.GetTeam(ctx, args[0])
		if err != nil {
			return err
		}
		view, err := a.board.OpenPicker(ctx, team.ID)
		if err != nil {
			return err
		}

		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			_, err := runner.NewJSONRunner(a.board, cmd.InOrStdin(), cmd.OutOrStdout(),
				runner.WithLogger(a.logger)).Run(ctx, view)
			return err
		}

		toggles, _ := cmd.Flags().GetStringSlice("toggle")
		interactive := len(toggles) == 0 && tui.IsTerminal(os.Stdin) && tui.IsTerminal(os.Stdout)

		if interactive {
			return runInteractivePicker(cmd, a, team, view)
		}
		return runScriptedPicker(cmd, a, view.SessionID, toggles)
	},
}

func runInteractivePicker(cmd *cobra.Command, a *app, team *domain.Team, view domain.PickerView) error {
	ctx := cmd.Context()
	driver := tui.DriverFunc(func(action domain.PickerAction) (domain.PickerView, error) {
		v, _, err := a.board.UpdatePicker(ctx, view.SessionID, action)
		return v, err
	})

	final, err := tui.RunPicker(tui.NewPicker(team.Name, view, driver))
	if err != nil {
		_ = a.board.CancelPicker(ctx, view.SessionID)
		return err
	}
	if !final.Confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), "Canceled; capabilities unchanged.")
		return a.board.CancelPicker(ctx, view.SessionID)
	}

	saved, err := a.board.ConfirmPicker(ctx, view.SessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d capabilities on '%s'.\n", len(saved.Capabilities), saved.Name)
	return nil
}

func runScriptedPicker(cmd *cobra.Command, a *app, sessionID string, toggles []string) error {
	ctx := cmd.Context()

	var actions []domain.PickerAction
	if q, _ := cmd.Flags().GetString("query"); q != "" {
		actions = append(actions, domain.PickerAction{Type: domain.ActionSetQuery, Query: q})
	}
	if level, _ := cmd.Flags().GetInt("level"); level != 0 {
		actions = append(actions, domain.PickerAction{Type: domain.ActionSetLevel, Level: level})
	}
	category, err := categoryFlag(cmd)
	if err != nil {
		_ = a.board.CancelPicker(ctx, sessionID)
		return err
	}
	if category != "" {
		actions = append(actions, domain.PickerAction{Type: domain.ActionSetCategory, Category: category})
	}
	for _, id := range toggles {
		actions = append(actions, domain.PickerAction{Type: domain.ActionToggleSelect, NodeID: id})
	}

	view, err := a.board.Picker(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, action := range actions {
		if view, _, err = a.board.UpdatePicker(ctx, sessionID, action); err != nil {
			_ = a.board.CancelPicker(ctx, sessionID)
			return err
		}
	}
	if err := printMarkdown(cmd, tree.Markdown(view)); err != nil {
		_ = a.board.CancelPicker(ctx, sessionID)
		return err
	}

	if len(toggles) == 0 {
		return a.board.CancelPicker(ctx, sessionID)
	}
	saved, err := a.board.ConfirmPicker(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved %d capabilities on '%s'.\n", len(saved.Capabilities), saved.Name)
	return nil
}

func init() {
	rootCmd.AddCommand(teamsCmd)
	teamsCmd.AddCommand(teamsLsCmd, teamsShowCmd, teamsCreateCmd, teamsRmCmd, teamsPickCmd)

	addFormatFlag(teamsLsCmd, "table", "json")
	addFormatFlag(teamsShowCmd, "markdown", "json")

	teamsCreateCmd.Flags().String("id", "", "Team id (generated when empty)")
	teamsCreateCmd.Flags().String("description", "", "Team description")
	teamsCreateCmd.Flags().StringSlice("capability", nil, "Capability id to tag (repeatable)")

	teamsPickCmd.Flags().String("query", "", "Search text applied before toggling")
	teamsPickCmd.Flags().Int("level", 0, "Level filter applied before toggling")
	teamsPickCmd.Flags().String("category", "", "Category tab: core or enabling")
	teamsPickCmd.Flags().StringSlice("toggle", nil, "Capability id to toggle (repeatable)")
	teamsPickCmd.Flags().Bool("json", false, "Drive the picker with JSON lines on stdin/stdout")
}
