package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func toolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the API tools Tool nodes can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Tools) == 0 {
				warn.Fprintln(out, "  no tools configured")
				return nil
			}

			rows := make([][]string, 0, len(cfg.Tools))
			for _, t := range cfg.Tools {
				params := make([]string, 0, len(t.Parameters))
				for _, p := range t.Parameters {
					s := fmt.Sprintf("%s:%s", p.Name, p.Type)
					if p.Required {
						s += "*"
					}
					params = append(params, s)
				}
				rows = append(rows, []string{t.ID, t.Name, strings.TrimSpace(t.HTTPMethod + " " + t.Endpoint), strings.Join(params, ", ")})
			}
			table(out, []string{"ID", "NAME", "ENDPOINT", "PARAMETERS"}, rows)
			return nil
		},
	}
}
