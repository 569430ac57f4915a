package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/workflow"
)

func templateCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print the starter workflow as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := json.MarshalIndent(workflow.DefaultTemplate(id), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "sales-qualification", "Workflow id to stamp on the template")
	return cmd
}

func paletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palette",
		Short: "List the node types that can be placed on the canvas",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var rows [][]string
			for _, p := range workflow.Palette() {
				rows = append(rows, []string{string(p.Type), p.Title, p.Description})
			}
			table(cmd.OutOrStdout(), []string{"TYPE", "TITLE", "DESCRIPTION"}, rows)
		},
	}
}
