// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/core/config"
	"github.com/deskpilot/deskpilot/internal/store"
)

func getHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent persisted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is not enabled in the configuration")
			}

			runs, err := store.NewRunStore(config.ExpandPathWithTilde(cfg.History.Path))
			if err != nil {
				return err
			}
			defer runs.Close()

			summaries, err := runs.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}

			for _, run := range summaries {
				fmt.Printf("#%d [%s] %s (%d steps, %s)\n", run.ID, run.Status, run.Command, run.Steps, run.CreatedAt)
				if run.Reason != "" {
					fmt.Printf("    %s\n", run.Reason)
				}
			}
			return nil
		},
	}

	historyCmd.Flags().IntP("limit", "n", 10, "Maximum number of runs to show")
	return historyCmd
}
