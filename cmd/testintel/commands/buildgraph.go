package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const buildGraphArgCount = 1

// BuildGraphCommand holds the flags for the build-graph command.
type BuildGraphCommand struct {
	configPath string
	format     string
	maxMethods int
}

// NewBuildGraphCommand creates and configures the build-graph command.
func NewBuildGraphCommand() *cobra.Command {
	bc := &BuildGraphCommand{}

	cobraCmd := &cobra.Command{
		Use:   "build-graph <workspace>",
		Short: "Build the call graph for a workspace and print a digest",
		Args:  cobra.ExactArgs(buildGraphArgCount),
		RunE:  bc.Run,
	}

	cobraCmd.Flags().StringVar(&bc.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&bc.format, "format", "f", "text", "Output format: text or json")
	cobraCmd.Flags().IntVar(&bc.maxMethods, "max-methods", 0, "Max sampled methods in the digest (0 = default of 20)")

	return cobraCmd
}

// Run executes the build-graph command.
func (bc *BuildGraphCommand) Run(cobraCmd *cobra.Command, args []string) error {
	svc, err := newService(bc.configPath)
	if err != nil {
		return err
	}

	digest, err := svc.Engine.BuildCallGraph(cobraCmd.Context(), args[0], bc.maxMethods)
	if err != nil {
		return fmt.Errorf("build call graph: %w", err)
	}

	if bc.format == "json" {
		return writeJSON(os.Stdout, digest)
	}

	fmt.Fprintf(os.Stdout, "nodes=%d edges=%d unresolved=%d\n", digest.NodeCount, digest.EdgeCount, digest.UnresolvedCalls)

	tbl := newTable(table.Row{"Method", "Is Test", "Callees", "Callers"})
	for _, entry := range digest.Sample {
		tbl.AppendRow(table.Row{entry.MethodID, entry.IsTest, entry.Callees, entry.Callers})
	}

	fmt.Fprintln(os.Stdout, tbl.Render())

	return nil
}
