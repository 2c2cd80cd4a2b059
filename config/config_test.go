package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-book/orderbook"
)

func clearEnv(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvPriceTree, "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lob.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, "info", c.Logging.Level)

	treeType, err := c.Engine.TreeType()
	require.NoError(t, err)
	assert.Equal(t, orderbook.RedBlackTreeType, treeType)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
engine:
  price_tree: btree
  fill_buffer: 0
logging:
  level: debug
  pretty: true
benchmark:
  duration: 250ms
  workers: 2
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "btree", c.Engine.PriceTree)
	assert.Equal(t, 0, c.Engine.FillBuffer)
	assert.Equal(t, 1024, c.Engine.RequestBuffer, "unset keys keep defaults")
	assert.Equal(t, "debug", c.Logging.Level)
	assert.True(t, c.Logging.Pretty)
	assert.Equal(t, 250*time.Millisecond, c.Benchmark.Duration)
	assert.Equal(t, 2, c.Benchmark.Workers)
	assert.Equal(t, int64(50000), c.Benchmark.BasePrice)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfig, writeConfig(t, "logging:\n  level: warn\n"))
	t.Setenv(EnvPriceTree, "list")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Logging.Level)
	assert.Equal(t, "list", c.Engine.PriceTree)

	t.Setenv(EnvLogLevel, "error")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", c.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "engine: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "engine:\n  price_tree: skiplist\n"))
	assert.ErrorContains(t, err, "engine.price_tree")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"request buffer", func(c *Config) { c.Engine.RequestBuffer = 0 }, "request_buffer"},
		{"fill buffer", func(c *Config) { c.Engine.FillBuffer = -1 }, "fill_buffer"},
		{"workers", func(c *Config) { c.Benchmark.Workers = 0 }, "workers"},
		{"price range", func(c *Config) { c.Benchmark.PriceRange = 0 }, "price_range"},
		{"ratios", func(c *Config) { c.Benchmark.CancelRatio, c.Benchmark.AmendRatio = 0.7, 0.5 }, "ratios"},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}
}
