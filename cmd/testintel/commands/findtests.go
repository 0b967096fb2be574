package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/coverage"
)

const findTestsArgCount = 2

// FindTestsCommand holds the flags for the find-tests command.
type FindTestsCommand struct {
	configPath string
	format     string
}

// NewFindTestsCommand creates and configures the find-tests command.
func NewFindTestsCommand() *cobra.Command {
	fc := &FindTestsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "find-tests <workspace> <method-pattern>",
		Short: "Find tests exercising a method",
		Args:  cobra.ExactArgs(findTestsArgCount),
		RunE:  fc.Run,
	}

	cobraCmd.Flags().StringVar(&fc.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&fc.format, "format", "f", "text", "Output format: text or json")

	return cobraCmd
}

// Run executes the find-tests command.
func (fc *FindTestsCommand) Run(cobraCmd *cobra.Command, args []string) error {
	svc, err := newService(fc.configPath)
	if err != nil {
		return err
	}

	search, err := svc.Engine.FindTests(cobraCmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("find tests: %w", err)
	}

	var results []coverage.CoverageInfo
	for info := range search.Results() {
		results = append(results, info)
	}

	// Fully-consumed results are presented best-evidence first.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}

		return results[i].TestID < results[j].TestID
	})

	diag := search.Diagnostics()

	if fc.format == "json" {
		return writeJSON(os.Stdout, struct {
			Results     []coverage.CoverageInfo `json:"results"`
			Diagnostics coverage.Diagnostics    `json:"diagnostics"`
		}{Results: results, Diagnostics: diag})
	}

	tbl := newTable(table.Row{"Test", "Class", "Type", "Confidence", "Call Path"})
	for _, info := range results {
		tbl.AppendRow(table.Row{info.TestSimpleName, info.TestClass, string(info.TestType), info.Confidence, len(info.CallPath) - 1})
	}

	fmt.Fprintln(os.Stdout, tbl.Render())

	if diag.DepthLimitReached {
		fmt.Fprintln(os.Stderr, "warning: search depth limit reached, results may be incomplete")
	}

	return nil
}
