package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/core"
)

const cacheArgCount = 2

var cacheActions = map[string]core.CacheAction{
	"status":  core.CacheStatus,
	"clear":   core.CacheClear,
	"init":    core.CacheInit,
	"warm-up": core.CacheWarmUp,
	"stats":   core.CacheStats,
}

// CacheCommand holds the flags for the cache command.
type CacheCommand struct {
	configPath string
	format     string
}

// NewCacheCommand creates and configures the cache command.
func NewCacheCommand() *cobra.Command {
	cc := &CacheCommand{}

	cobraCmd := &cobra.Command{
		Use:   "cache <workspace> <status|clear|init|warm-up|stats>",
		Short: "Inspect or manage the two-tier cache",
		Args:  cobra.ExactArgs(cacheArgCount),
		RunE:  cc.Run,
	}

	cobraCmd.Flags().StringVar(&cc.configPath, "config", "", "Path to testintel.yaml (default: search path)")
	cobraCmd.Flags().StringVarP(&cc.format, "format", "f", "text", "Output format: text or json")

	return cobraCmd
}

// Run executes the cache command.
func (cc *CacheCommand) Run(cobraCmd *cobra.Command, args []string) error {
	action, ok := cacheActions[args[1]]
	if !ok {
		return fmt.Errorf("unknown cache action %q (want one of status, clear, init, warm-up, stats)", args[1])
	}

	svc, err := newService(cc.configPath)
	if err != nil {
		return err
	}

	report, err := svc.Engine.Cache(cobraCmd.Context(), args[0], action)
	if err != nil {
		return fmt.Errorf("cache %s: %w", action, err)
	}

	if cc.format == "json" {
		return writeJSON(os.Stdout, report)
	}

	tbl := newTable(table.Row{"Memory Hits", "Disk Hits", "Misses", "Entries", "Bytes On Disk", "Avg Compression"})
	tbl.AppendRow(table.Row{
		report.Stats.MemoryHits, report.Stats.DiskHits, report.Stats.Misses,
		report.Stats.EntryCount, report.Stats.BytesOnDisk, report.Stats.AverageCompression,
	})

	fmt.Fprintln(os.Stdout, tbl.Render())

	return nil
}
