package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/teamboard/internal/presentation/tree"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/spf13/cobra"
)

var capabilitiesCmd = &cobra.Command{
	Use:     "capabilities",
	Aliases: []string{"caps"},
	Short:   "Browse the capability taxonomy",
}

var capabilitiesTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the taxonomy as a tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := format(cmd, "markdown", "mermaid", "json")
		if err != nil {
			return err
		}
		level, _ := cmd.Flags().GetInt("level")
		category, err := categoryFlag(cmd)
		if err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tax := a.board.Taxonomy()
		roots := tax.Forest()
		if category != "" {
			roots = tax.Roots(category)
		}

		switch f {
		case "mermaid":
			_, err = fmt.Fprint(cmd.OutOrStdout(), tree.Mermaid(roots, nil))
			return err
		case "json":
			return printJSON(cmd, roots)
		}
		return printMarkdown(cmd, tree.Forest(roots, level))
	},
}

var capabilitiesSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search capabilities by name, domain or description",
	Long: `Runs the filter over the taxonomy. The text is matched case-insensitively
against names, domains and descriptions; --level restricts matches to one level
and --category to one tab.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := format(cmd, "markdown", "mermaid", "json")
		if err != nil {
			return err
		}
		q := hierarchy.Query{}
		if len(args) == 1 {
			q.Text = args[0]
		}
		q.Level, _ = cmd.Flags().GetInt("level")
		if q.Level < 0 || q.Level > domain.MaxLevel {
			return fmt.Errorf("level must be between 0 and %d", domain.MaxLevel)
		}
		if q.Category, err = categoryFlag(cmd); err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.board.Search(cmd.Context(), q)
		tax := a.board.Taxonomy()

		switch f {
		case "mermaid":
			_, err = fmt.Fprint(cmd.OutOrStdout(), tree.Mermaid(res.VisibleRoots, &tree.Overlay{Matched: res.Matches.IDs()}))
			return err
		case "json":
			// The taxonomy may have been swapped since the search ran.
			nodes, unknown := tax.Resolve(res.Matches.IDs())
			if len(unknown) > 0 {
				a.logger.Warn("Search matches missing from the current taxonomy", "ids", unknown)
			}
			if nodes == nil {
				nodes = []*domain.CapabilityNode{}
			}
			return printJSON(cmd, nodes)
		}
		if !q.Active() {
			return printMarkdown(cmd, tree.Forest(res.VisibleRoots, 0))
		}
		return printMarkdown(cmd, tree.Results(tax, res.Matches.IDs()))
	},
}

var capabilitiesShowCmd = &cobra.Command{
	Use:   "show <capability-id>",
	Short: "Show one capability with its path and children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.board.Capability(args[0])
		if err != nil {
			return err
		}
		return printMarkdown(cmd, tree.Capability(n, a.board.Taxonomy().Path(n.ID)))
	},
}

func categoryFlag(cmd *cobra.Command) (domain.Category, error) {
	s, _ := cmd.Flags().GetString("category")
	return domain.ParseCategory(strings.ToLower(strings.TrimSpace(s)))
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
	capabilitiesCmd.AddCommand(capabilitiesTreeCmd, capabilitiesSearchCmd, capabilitiesShowCmd)

	for _, c := range []*cobra.Command{capabilitiesTreeCmd, capabilitiesSearchCmd} {
		addFormatFlag(c, "markdown", "mermaid", "json")
		c.Flags().String("category", "", "Restrict to one tab: core or enabling")
	}
	capabilitiesTreeCmd.Flags().Int("level", 0, "Deepest level to print (0 prints all)")
	capabilitiesSearchCmd.Flags().Int("level", 0, "Only match capabilities at this level (1-3)")
}
