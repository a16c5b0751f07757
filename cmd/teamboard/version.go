package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/teamboard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of teamboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "teamboard version %s\n", strings.TrimSpace(teamboard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
