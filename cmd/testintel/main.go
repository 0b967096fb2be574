// Command testintel is the CLI entry point for the TestIntelligence
// static analysis core: it parses flags, dispatches to pkg/core.Engine,
// and formats results. No analysis logic lives here.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Chris-Cullins/TestIntel-sub004/cmd/testintel/commands"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
)

// Version, Commit, and Date are injected via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "testintel",
		Short: "TestIntelligence static analysis core",
		Long: `testintel builds a method-level call graph for a .NET workspace and
answers test-impact and coverage queries against it.

Commands:
  analyze      Categorize every method discovered in a workspace
  build-graph  Build the call graph and print a digest
  find-tests   Find tests exercising a method
  trace        Trace every method a test executes
  diff-impact  List tests potentially impacted by a diff
  coverage     Report which changed methods a set of tests covers
  cache        Inspect or manage the two-tier cache
  config       Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewBuildGraphCommand())
	rootCmd.AddCommand(commands.NewFindTestsCommand())
	rootCmd.AddCommand(commands.NewTraceCommand())
	rootCmd.AddCommand(commands.NewDiffImpactCommand())
	rootCmd.AddCommand(commands.NewCoverageCommand())
	rootCmd.AddCommand(commands.NewCacheCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the core's typed errors onto the process exit-code
// contract consumed by CI callers.
func exitCode(err error) int {
	var te *tierrors.Error
	if errors.As(err, &te) {
		switch te.Kind {
		case tierrors.WorkspaceInvalid:
			return 2
		case tierrors.MethodNotFound, tierrors.TestNotFound:
			return 3
		case tierrors.BuildTimedOut:
			return 124
		case tierrors.Cancelled:
			return 130
		}
	}

	if errors.Is(err, os.ErrPermission) {
		return 13
	}

	return 1
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "testintel %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
