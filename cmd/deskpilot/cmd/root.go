// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/version"
)

// Create the root command
var rootCmd = &cobra.Command{
	Use:   "deskpilot",
	Short: "Deskpilot - Natural Language Desktop Automation",
	Long: `Deskpilot translates natural language commands into validated sequences of
GUI actions and executes them against a desktop, stopping on the first
unrecoverable failure.`,
	Version: fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(getRunCmd())
	rootCmd.AddCommand(getActionsCmd())
	rootCmd.AddCommand(getHistoryCmd())
}
