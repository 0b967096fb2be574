package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/core"
)

const diffImpactArgCount = 1

// DiffImpactCommand holds the flags for the diff-impact command.
type DiffImpactCommand struct {
	configPath string
	format     string
	confidence string
	diffFile   string
	diffCmd    []string
}

// NewDiffImpactCommand creates and configures the diff-impact command.
func NewDiffImpactCommand() *cobra.Command {
	dc := &DiffImpactCommand{}

	cobraCmd := &cobra.Command{
		Use:   "diff-impact <workspace>",
		Short: "List tests potentially impacted by a diff",
		Args:  cobra.ExactArgs(diffImpactArgCount),
		RunE:  dc.Run,
	}

	cobraCmd.Flags().StringVar(&dc.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&dc.format, "format", "f", "text", "Output format: text or json")
	cobraCmd.Flags().StringVar(&dc.confidence, "confidence", "Medium", "Confidence level: Fast, Medium, High, or Full")
	cobraCmd.Flags().StringVar(&dc.diffFile, "diff-file", "", "Path to a unified diff file")
	cobraCmd.Flags().StringArrayVar(&dc.diffCmd, "diff-cmd", nil, "Revision-control command (and args) producing unified diff text on stdout")

	return cobraCmd
}

// Run executes the diff-impact command.
func (dc *DiffImpactCommand) Run(cobraCmd *cobra.Command, args []string) error {
	svc, err := newService(dc.configPath)
	if err != nil {
		return err
	}

	diffSource, err := readDiffSource(args[0], dc.diffFile, dc.diffCmd)
	if err != nil {
		return fmt.Errorf("read diff: %w", err)
	}

	impacted, diag, err := svc.Engine.DiffImpact(cobraCmd.Context(), args[0], diffSource, core.ConfidenceLevel(dc.confidence))
	if err != nil {
		return fmt.Errorf("diff impact: %w", err)
	}

	if dc.format == "json" {
		return writeJSON(os.Stdout, struct {
			Tests       []core.ImpactedTest `json:"tests"`
			Diagnostics any                 `json:"diagnostics"`
		}{Tests: impacted, Diagnostics: diag})
	}

	tbl := newTable(table.Row{"Test", "Changed Methods Covered"})
	for _, t := range impacted {
		tbl.AppendRow(table.Row{t.TestID, len(t.Coverage)})
	}

	fmt.Fprintln(os.Stdout, tbl.Render())
	fmt.Fprintf(os.Stdout, "file-level fallbacks=%d unmatched-changes=%d bounds-reached=%t\n",
		diag.FileLevelFallbacks, diag.UnmatchedChanges, diag.BoundsReached)

	return nil
}
