package main

import (
	"fmt"
	"strings"

	"github.com/spboyer/hirebench/internal/orchestration"
	"github.com/spboyer/hirebench/internal/scoring"
	"github.com/spf13/cobra"
)

func newModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the graded modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, m := range scoring.Modules() {
				var names []string
				for _, t := range orchestration.ModuleValidators(m.Name) {
					names = append(names, string(t))
				}
				rows = append(rows, []string{
					m.Name,
					fmt.Sprintf("%d", m.MaxScore),
					fmt.Sprintf("%.2f", m.Weight),
					strings.Join(names, ", "),
				})
			}
			rows = append(rows, []string{"total", fmt.Sprintf("%d", scoring.MaxScore()), "", ""})

			return writeTable(cmd.OutOrStdout(), []string{"MODULE", "MAX", "WEIGHT", "VALIDATORS"}, rows)
		},
	}
}
