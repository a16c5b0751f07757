/*
Package teamboard is the backend of a team-management dashboard: teams, their
working agreements, and the business capabilities each team is tagged with.

Capabilities come from a three-level taxonomy (see pkg/taxonomy). Tagging is
done through a picker session: the user filters the taxonomy by text, level
or category, expands and collapses branches, toggles nodes, and finally
confirms, which writes the selection onto the team.

# Usage

	ctx := context.Background()
	board, err := teamboard.New(ctx)
	if err != nil {
		log.Fatal(err)
	}

	team, _ := board.CreateTeam(ctx, &domain.Team{Name: "Payments"})
	view, _ := board.OpenPicker(ctx, team.ID)
	view, _, _ = board.UpdatePicker(ctx, view.SessionID, domain.PickerAction{
		Type:  domain.ActionSetQuery,
		Query: "regulations",
	})
	// render view.Rows, forward clicks as ActionToggleSelect ...
	team, _ = board.ConfirmPicker(ctx, view.SessionID)

Storage, the taxonomy source, the filter policy and observability hooks are
chosen with functional options (WithTeamStore, WithTaxonomyLoader, WithPolicy,
WithLifecycleHooks). Drivers for HTTP, MCP and the terminal live under
pkg/adapters and cmd/teamboard.
*/
package teamboard
