package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	cfg, err := config.Load(emptyPath)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Bounds.MaxPathDepth)
	assert.Equal(t, 2000, cfg.Bounds.MaxVisitedNodes)
	assert.Equal(t, 10, cfg.Bounds.MaxExpansionDepth)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "testintel.yaml")
	content := `
bounds:
  max_path_depth: 8
  max_visited_nodes: 500
cache:
  directory: "/tmp/ti-cache"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Bounds.MaxPathDepth)
	assert.Equal(t, 500, cfg.Bounds.MaxVisitedNodes)
	assert.Equal(t, "/tmp/ti-cache", cfg.Cache.Directory)
}

func TestLoad_EnvOverrideOutOfRangeFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	t.Setenv("TI_MAX_PATH_DEPTH", "1") // below the minimum of 2.
	t.Setenv("TI_MAX_VISITED_NODES", "50000")

	cfg, err := config.Load(emptyPath)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Bounds.MaxPathDepth, "out-of-range override should fall back to the default")
	assert.Equal(t, 50000, cfg.Bounds.MaxVisitedNodes, "in-range override should be honored")
}

func TestDump_RendersEffectiveConfigAsYAML(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	cfg, err := config.Load(emptyPath)
	require.NoError(t, err)

	out, err := config.Dump(cfg)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "max_path_depth: 12")
	assert.Contains(t, text, "max_visited_nodes: 2000")
}

func TestLoad_EnvOverrideValid(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	t.Setenv("TI_MAX_PATH_DEPTH", "20")

	cfg, err := config.Load(emptyPath)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Bounds.MaxPathDepth)
}
