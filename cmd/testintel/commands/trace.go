package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const traceArgCount = 2

// TraceCommand holds the flags for the trace command.
type TraceCommand struct {
	configPath string
	format     string
	maxDepth   int
}

// NewTraceCommand creates and configures the trace command.
func NewTraceCommand() *cobra.Command {
	tc := &TraceCommand{}

	cobraCmd := &cobra.Command{
		Use:   "trace <workspace> <test-id>",
		Short: "Trace every method a test executes",
		Args:  cobra.ExactArgs(traceArgCount),
		RunE:  tc.Run,
	}

	cobraCmd.Flags().StringVar(&tc.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&tc.format, "format", "f", "text", "Output format: text or json")
	cobraCmd.Flags().IntVar(&tc.maxDepth, "max-depth", 0, "BFS depth bound (0 = default of 20)")

	return cobraCmd
}

// Run executes the trace command.
func (tc *TraceCommand) Run(cobraCmd *cobra.Command, args []string) error {
	svc, err := newService(tc.configPath)
	if err != nil {
		return err
	}

	trace, err := svc.Engine.TraceExecution(cobraCmd.Context(), args[0], args[1], tc.maxDepth)
	if err != nil {
		return fmt.Errorf("trace execution: %w", err)
	}

	if tc.format == "json" {
		return writeJSON(os.Stdout, trace)
	}

	tbl := newTable(table.Row{"Method", "Depth", "Category", "Production"})
	for _, m := range trace.Executed {
		tbl.AppendRow(table.Row{m.ID.String(), m.CallDepth, string(m.Category), m.IsProduction})
	}

	fmt.Fprintln(os.Stdout, tbl.Render())
	fmt.Fprintf(os.Stdout, "total=%d production=%d estimated-complexity=%.1f\n",
		trace.TotalCalled, trace.ProductionCalled, trace.EstimatedComplexity)

	if trace.Diagnostics.DepthLimitReached {
		fmt.Fprintln(os.Stderr, "warning: search depth limit reached, trace may be incomplete")
	}

	return nil
}
