package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsFillCatalog(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, 3*time.Second, cfg.Orchestrator.SourceTimeout)
	assert.Equal(t, int64(50), cfg.Orchestrator.DefaultSlippageBps)
	assert.False(t, cfg.Orchestrator.Strict)
	assert.NotEmpty(t, cfg.Sources)
	assert.NotEmpty(t, cfg.Simulation)
	assert.Equal(t, "https://api.0x.org", cfg.Aggregators[config.AggregatorZeroX].BaseURL)
}

func TestLoad_FileOverridesCatalog(t *testing.T) {
	body := `
orchestrator:
  source_timeout: 750ms
  strict: true
sources:
  - name: local-v2
    model: constant_product
    chains: [1]
    fee_bps: 30
    factory: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"
aggregators:
  "0x":
    api_key: secret
`
	cfg, err := config.Load(writeConfig(t, body))
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "local-v2", cfg.Sources[0].Name)
	assert.Equal(t, 750*time.Millisecond, cfg.Orchestrator.SourceTimeout)
	assert.True(t, cfg.Orchestrator.Strict)
	assert.Equal(t, "secret", cfg.Aggregators[config.AggregatorZeroX].APIKey)
	assert.Equal(t, "https://api.0x.org", cfg.Aggregators[config.AggregatorZeroX].BaseURL)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	require.NoError(t, fs.Parse([]string{"--log-level=debug"}))

	cfg, err := config.Load(writeConfig(t, "app:\n  log_level: warn\n"),
		config.WithFlags(fs, map[string]string{"log-level": "app.log_level"}))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestValidate_RejectsBadSources(t *testing.T) {
	tests := []struct {
		name string
		src  config.SourceConfig
	}{
		{name: "unknown model", src: config.SourceConfig{Name: "x", Model: "orderbook", Chains: []uint64{1}}},
		{name: "no chains", src: config.SourceConfig{Name: "x", Model: config.ModelConstantProduct, Factory: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"}},
		{name: "missing factory", src: config.SourceConfig{Name: "x", Model: config.ModelConstantProduct, Chains: []uint64{1}}},
		{name: "bad index type", src: config.SourceConfig{Name: "x", Model: config.ModelStableSwap, Chains: []uint64{1},
			Pools: []config.PoolConfig{{Address: "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7", IndexType: "int8"}}}},
		{name: "unknown aggregator", src: config.SourceConfig{Name: "x", Model: config.ModelAggregator, Chains: []uint64{1}, Aggregator: "paraswap"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Orchestrator: config.OrchestratorConfig{SourceTimeout: time.Second},
				Sources:      []config.SourceConfig{tt.src},
				Aggregators:  config.DefaultAggregators(),
			}
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	cfg := &config.Config{
		Orchestrator: config.OrchestratorConfig{SourceTimeout: time.Second, DefaultSlippageBps: 50},
		Sources:      config.DefaultSources(),
		Aggregators:  config.DefaultAggregators(),
		Simulation:   config.DefaultSimulation(),
	}
	assert.NoError(t, cfg.Validate())
}
