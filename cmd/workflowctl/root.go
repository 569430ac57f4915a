package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/workflow/config"
)

var version = "0.1.0"

// Output colors
var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "workflowctl",
		Short:        "Inspect and validate workflow graphs",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate("workflowctl {{ .Version }}\n")
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("WORKFLOW_CONFIG"), "Path to the TOML config file")

	root.AddCommand(
		validateCmd(opts),
		templateCmd(),
		toolsCmd(opts),
		paletteCmd(),
	)
	return root
}

// table prints an aligned table with a dimmed header.
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header, sep := "  ", "  "
	for i, h := range headers {
		header += fmt.Sprintf("%-*s  ", widths[i], h)
		sep += strings.Repeat("─", widths[i]) + "  "
	}
	subtle.Fprintln(w, strings.TrimRight(header, " "))
	subtle.Fprintln(w, strings.TrimRight(sep, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
