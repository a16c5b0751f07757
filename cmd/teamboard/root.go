package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teamboard",
	Short: "Teamboard tags teams with business capabilities",
	Long: `Teamboard keeps a registry of teams and the business capabilities they own.
Capabilities come from a three-level taxonomy (domain, area, capability) that can be
searched, filtered by level or category, and picked interactively.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default ./teamboard.yaml when present)")
}
