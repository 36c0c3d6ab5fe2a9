package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/sauce-e2e/internal/journeys"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "list [pattern...]",
		Short:       "List the available journeys",
		Long:        "List journeys by name. Patterns are exact names, groups such as \"login\" or globs such as \"checkout/*\".",
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := journeys.Select(args...)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, j := range selected {
				fmt.Fprintf(tw, "%s\t%s\n", j.Name, j.Description)
			}
			return tw.Flush()
		},
	}
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "graph",
		Short:       "Print the page navigation graph in Graphviz DOT format",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigation.WriteDOT(cmd.OutOrStdout())
		},
	}
}
