package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const coverageArgCount = 2

// CoverageCommand holds the flags for the coverage command.
type CoverageCommand struct {
	configPath string
	format     string
	testIDs    []string
	diffFile   string
	diffCmd    []string
}

// NewCoverageCommand creates and configures the coverage command.
func NewCoverageCommand() *cobra.Command {
	cc := &CoverageCommand{}

	cobraCmd := &cobra.Command{
		Use:   "coverage <workspace> <test-id> [test-id...]",
		Short: "Report which of a diff's changed methods a set of tests covers",
		Args:  cobra.MinimumNArgs(coverageArgCount),
		RunE:  cc.Run,
	}

	cobraCmd.Flags().StringVar(&cc.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&cc.format, "format", "f", "text", "Output format: text or json")
	cobraCmd.Flags().StringVar(&cc.diffFile, "diff-file", "", "Path to a unified diff file")
	cobraCmd.Flags().StringArrayVar(&cc.diffCmd, "diff-cmd", nil, "Revision-control command (and args) producing unified diff text on stdout")

	return cobraCmd
}

// Run executes the coverage command.
func (cc *CoverageCommand) Run(cobraCmd *cobra.Command, args []string) error {
	svc, err := newService(cc.configPath)
	if err != nil {
		return err
	}

	workspaceRoot, testIDs := args[0], args[1:]

	diffSource, err := readDiffSource(workspaceRoot, cc.diffFile, cc.diffCmd)
	if err != nil {
		return fmt.Errorf("read diff: %w", err)
	}

	report, err := svc.Engine.AnalyzeCoverage(cobraCmd.Context(), workspaceRoot, testIDs, diffSource)
	if err != nil {
		return fmt.Errorf("analyze coverage: %w", err)
	}

	if cc.format == "json" {
		return writeJSON(os.Stdout, report)
	}

	tbl := newTable(table.Row{"Test", "Changed Methods Covered"})
	for _, entry := range report.Tests {
		names := make([]string, 0, len(entry.Covers))
		for _, c := range entry.Covers {
			names = append(names, c.CallPath[len(c.CallPath)-1].SimpleName())
		}

		tbl.AppendRow(table.Row{entry.TestID, strings.Join(names, ", ")})
	}

	fmt.Fprintln(os.Stdout, tbl.Render())

	return nil
}
