package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/workflow"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Check a workflow file for problems that block publishing",
		Long: "Reads a workflow ({id, name, nodes, edges}) from a file, or stdin when the\n" +
			"file is -, and lists every issue. Exits non-zero when any issue is an error.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			w, err := readWorkflow(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			issues := workflow.Validate(w, workflow.NewCatalog(cfg.Tools))
			out := cmd.OutOrStdout()
			if asJSON {
				b, err := json.MarshalIndent(issues, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
			} else {
				printIssues(out, w, issues)
			}
			if issues.HasErrors() {
				return &workflow.ValidationError{Issues: issues}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print issues as JSON")
	return cmd
}

func readWorkflow(stdin io.Reader, path string) (*workflow.Workflow, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var w workflow.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		if errors.Is(err, workflow.ErrUnknownNodeType) {
			return nil, err
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &w, nil
}

func printIssues(out io.Writer, w *workflow.Workflow, issues workflow.Issues) {
	name := w.Name
	if name == "" {
		name = w.ID
	}
	fmt.Fprintf(out, "%s %s\n", brand.Sprint(name), subtle.Sprintf("(%d nodes, %d edges)", len(w.Nodes), len(w.Edges)))

	if len(issues) == 0 {
		good.Fprintln(out, "  no issues")
		return
	}

	rows := make([][]string, 0, len(issues))
	errs := 0
	for _, i := range issues {
		sev := warn.Sprint(i.Severity)
		if i.Severity == workflow.SeverityError {
			sev = bad.Sprint(i.Severity)
			errs++
		}
		where := i.NodeID
		if where == "" {
			where = i.EdgeID
		}
		rows = append(rows, []string{sev, i.Code, where, i.Message})
	}
	table(out, []string{"SEVERITY", "CODE", "WHERE", "MESSAGE"}, rows)

	summary := fmt.Sprintf("  %d errors, %d warnings", errs, len(issues)-errs)
	if errs > 0 {
		bad.Fprintln(out, summary)
	} else {
		warn.Fprintln(out, summary)
	}
}
