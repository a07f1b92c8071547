// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/core/action"
)

func getActionsCmd() *cobra.Command {
	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "List the action catalog",
		Long:  `Actions prints every registered action kind with its fields, as the planner sees them.`,
		Run: func(cmd *cobra.Command, args []string) {
			registry := action.NewRegistry()
			for _, kind := range registry.Kinds() {
				sch, err := registry.SchemaFor(kind)
				if err != nil {
					// Kinds() only returns registered kinds.
					continue
				}

				terminal := ""
				if sch.Terminal {
					terminal = " (terminal)"
				}
				fmt.Printf("%s%s\n  %s\n", sch.Kind, terminal, sch.Description)

				for _, f := range sch.Fields {
					requirement := "optional"
					if f.Required {
						requirement = "required"
					}
					fmt.Printf("    %-18s %-12s %-9s %s\n", f.Name, f.Type, requirement, f.Description)
				}
				fmt.Println()
			}
		},
	}
	return actionsCmd
}
