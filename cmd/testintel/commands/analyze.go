package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const analyzeArgCount = 1

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	configPath string
	format     string
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze <workspace>",
		Short: "Categorize every method discovered in a workspace",
		Long:  "Resolve a workspace (solution, project, or directory), build its call graph, and report test/production method counts by test type.",
		Args:  cobra.ExactArgs(analyzeArgCount),
		RunE:  ac.Run,
	}

	cobraCmd.Flags().StringVar(&ac.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&ac.format, "format", "f", "text", "Output format: text or json")

	return cobraCmd
}

// Run executes the analyze command.
func (ac *AnalyzeCommand) Run(cobraCmd *cobra.Command, args []string) error {
	svc, err := newService(ac.configPath)
	if err != nil {
		return err
	}

	report, err := svc.Engine.Analyze(cobraCmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if ac.format == "json" {
		return writeJSON(os.Stdout, report)
	}

	tbl := newTable(table.Row{"Total", "Tests", "Production", "Files Parsed", "Files Skipped", "Unresolved Calls"})
	tbl.AppendRow(table.Row{
		report.TotalMethods, report.TestMethods, report.ProductionMethods,
		report.Diagnostics.FilesParsed, report.Diagnostics.FilesSkipped, report.Diagnostics.UnresolvedCalls,
	})

	fmt.Fprintln(os.Stdout, tbl.Render())

	if len(report.ByTestType) > 0 {
		byType := newTable(table.Row{"Test Type", "Count"})
		for testType, count := range report.ByTestType {
			byType.AppendRow(table.Row{testType, count})
		}

		fmt.Fprintln(os.Stdout, byType.Render())
	}

	return nil
}
