package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/config"
)

// ConfigCommand holds the flags for the config command.
type ConfigCommand struct {
	configPath string
}

// NewConfigCommand creates the config command, which prints the effective
// configuration after file, environment, and clamp processing.
func NewConfigCommand() *cobra.Command {
	cc := &ConfigCommand{}

	cobraCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  cc.Run,
	}

	cobraCmd.Flags().StringVar(&cc.configPath, "config", "", "Path to testintel.yaml (default: search path)")

	return cobraCmd
}

// Run executes the config command.
func (cc *ConfigCommand) Run(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cc.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out, err := config.Dump(cfg)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(out)

	return err
}
