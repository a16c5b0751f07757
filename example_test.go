package teamboard_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/teamboard"
	"github.com/aretw0/teamboard/pkg/domain"
)

// ExampleBoard_picker tags a team with a capability found by searching.
func ExampleBoard_picker() {
	ctx := context.Background()
	board, err := teamboard.New(ctx)
	if err != nil {
		log.Fatal(err)
	}

	team, err := board.CreateTeam(ctx, &domain.Team{ID: "payments", Name: "Payments"})
	if err != nil {
		log.Fatal(err)
	}

	view, err := board.OpenPicker(ctx, team.ID)
	if err != nil {
		log.Fatal(err)
	}
	sid := view.SessionID

	view, _, err = board.UpdatePicker(ctx, sid, domain.PickerAction{
		Type:  domain.ActionSetQuery,
		Query: "regulations",
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, row := range view.Rows[:5] {
		line := strings.Repeat("  ", row.Level-1) + row.Name
		if row.Matched {
			line += " (match)"
		}
		fmt.Println(line)
	}

	if _, _, err := board.UpdatePicker(ctx, sid, domain.PickerAction{
		Type:   domain.ActionToggleSelect,
		NodeID: "tax-compliance",
	}); err != nil {
		log.Fatal(err)
	}

	team, err = board.ConfirmPicker(ctx, sid)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(team.Capabilities)

	// Output:
	// Finance Management
	//   Taxes
	//     Tax Compliance (match)
	//     Tax Planning
	//     Tax Reporting
	// [tax-compliance]
}
