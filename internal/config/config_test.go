package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retaillab/markdown-cli/internal/optimize"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "markdown.db", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Planner.Horizon)
	assert.Equal(t, 0.10, cfg.Planner.LowerBound)
	assert.Equal(t, 0.60, cfg.Planner.UpperBound)
	assert.Equal(t, 0.60, cfg.Planner.Liquidation)
	assert.Equal(t, 2014, cfg.Planner.CutoffYear)
	assert.Equal(t, 51, cfg.Planner.CutoffWeek)
	assert.Equal(t, optimize.MethodProjectedGradient, cfg.Optimizer.Method)
	assert.Equal(t, optimize.DefaultMaxIterations, cfg.Optimizer.MaxIterations)
	assert.Equal(t, 3, cfg.Cluster.Segments)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MARKDOWN_PLANNER_HORIZON", "6")
	t.Setenv("MARKDOWN_OPTIMIZER_METHOD", optimize.MethodNelderMead)
	t.Setenv("MARKDOWN_STORE_PATH", "/tmp/plans.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Planner.Horizon)
	assert.Equal(t, optimize.MethodNelderMead, cfg.Optimizer.Method)
	assert.Equal(t, "/tmp/plans.db", cfg.Store.Path)
}

func TestOptimizerOptions(t *testing.T) {
	c := OptimizerConfig{Method: "nelder-mead", MaxIterations: 50, Tolerance: 1e-4, Parallel: true}
	opts := c.Options()

	assert.Equal(t, "nelder-mead", opts.Method)
	assert.Equal(t, 50, opts.MaxIterations)
	assert.Equal(t, 1e-4, opts.Tolerance)
	assert.True(t, opts.Parallel)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense", Format: "json"})
	assert.Error(t, err)
}
