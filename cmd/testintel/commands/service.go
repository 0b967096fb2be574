// Package commands implements CLI command handlers for testintel.
package commands

import (
	"fmt"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/config"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/core"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/observability"
)

// Service wires the static analysis core's Engine together with the
// observability providers it was built with.
type Service struct {
	Engine    *core.Engine
	Providers observability.Providers
}

// newService loads configuration from configPath (empty uses the default
// search path) and constructs the Engine commands dispatch against.
func newService(configPath string) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	providers, err := observability.Init(observability.Config{
		ServiceName: "testintel",
		LogFormat:   cfg.Logging.Format,
		LogLevel:    cfg.Logging.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	engine, err := core.New(cfg, providers)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	return &Service{Engine: engine, Providers: providers}, nil
}
