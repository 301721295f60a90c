package quote

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/chain"
	quoteDI "github.com/fd1az/quote-engine/business/quote/di"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/business/quote/infra/aggregator"
	"github.com/fd1az/quote-engine/business/quote/infra/constantproduct"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain/chaintest"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/di"
	"github.com/fd1az/quote-engine/internal/logger"
	"github.com/fd1az/quote-engine/internal/monolith"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "quote-engine"},
		Ethereum: config.EthereumConfig{ChainID: 1},
		Orchestrator: config.OrchestratorConfig{
			SourceTimeout:      time.Second,
			DefaultSlippageBps: 50,
			DefaultDeadline:    20 * time.Minute,
			DisplayDecimals:    6,
		},
		Sources:     config.DefaultSources(),
		Aggregators: config.DefaultAggregators(),
		Simulation:  config.DefaultSimulation(),
	}
}

func venueNames(venues []domain.LiquiditySource) []string {
	names := make([]string, 0, len(venues))
	for _, v := range venues {
		names = append(names, v.Name)
	}
	return names
}

func TestModule_WithoutRPCServesRoutersOnly(t *testing.T) {
	ctx := context.Background()
	mono, err := monolith.New(ctx, testConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mono.Close() })

	modules := []monolith.Module{&chain.Module{}, &Module{}}
	require.NoError(t, mono.RegisterModules(modules...))
	require.NoError(t, mono.StartModules(ctx, modules...))

	var sources []domain.LiquiditySource
	for _, v := range quoteDI.GetVenues(mono.Services()) {
		assert.Equal(t, domain.ModelAggregator, v.Source.Model)
		assert.Nil(t, v.Reader)
		sources = append(sources, v.Source)
	}
	assert.ElementsMatch(t, []string{"kyberswap", "1inch", "0x", "uniswap-routing"}, venueNames(sources))

	assert.NotNil(t, quoteDI.GetQuoteService(mono.Services()))
	_, hasJournal := di.TryGetToken(mono.Services(), quoteDI.Journal)
	assert.False(t, hasJournal)
}

func TestModule_DisabledRouterDropsItsSource(t *testing.T) {
	cfg := testConfig()
	off := false
	zeroX := cfg.Aggregators[config.AggregatorZeroX]
	zeroX.Enabled = &off
	cfg.Aggregators[config.AggregatorZeroX] = zeroX

	mono, err := monolith.New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mono.Close() })
	require.NoError(t, mono.RegisterModules(&Module{}))

	delegate := quoteDI.GetDelegate(mono.Services())
	_, ok := delegate.Client(config.AggregatorZeroX)
	assert.False(t, ok)

	for _, v := range quoteDI.GetVenues(mono.Services()) {
		assert.NotEqual(t, "0x", v.Source.Name)
	}
}

func TestBuildVenues_WithClientBindsEveryModel(t *testing.T) {
	cfg := testConfig()
	cfg.Sources[1].Disabled = true // sushiswap

	f := &venueFactory{
		client:   chaintest.NewBackend(),
		delegate: aggregator.NewDelegate(50),
		cp:       constantproduct.NewStrategy(),
		logger:   logger.NewNop(),
	}

	venues, skipped, err := buildVenues(cfg.Sources, asset.DefaultRegistry(), f)
	require.NoError(t, err)

	// No router clients were given to the delegate.
	assert.ElementsMatch(t, []string{"kyberswap", "1inch", "0x", "uniswap-routing"}, skipped)

	got := make(map[string]domain.Model)
	for _, v := range venues {
		got[v.Source.Name] = v.Source.Model
		assert.NotNil(t, v.Reader, v.Source.Name)
		assert.Equal(t, v.Source.Model, v.Strategy.Model(), v.Source.Name)
	}
	assert.Equal(t, map[string]domain.Model{
		"uniswap-v2":     domain.ModelConstantProduct,
		"pancakeswap-v2": domain.ModelConstantProduct,
		"uniswap-v3":     domain.ModelConcentrated,
		"pancakeswap-v3": domain.ModelConcentrated,
		"balancer-v2":    domain.ModelWeighted,
		"curve":          domain.ModelStableSwap,
	}, got)
}

func TestToLiquiditySource(t *testing.T) {
	registry := asset.DefaultRegistry()

	t.Run("resolves pool tokens in order", func(t *testing.T) {
		src, err := toLiquiditySource(config.SourceConfig{
			Name:   "curve",
			Model:  config.ModelStableSwap,
			Chains: []uint64{1},
			Pools: []config.PoolConfig{{
				Name:      "3pool",
				Address:   "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7",
				Tokens:    []string{"DAI", "usdc", "USDT"},
				IndexType: "int128",
			}},
		}, registry)
		require.NoError(t, err)

		assert.Equal(t, "curve", src.Protocol)
		require.Len(t, src.Pools, 1)
		pool := src.Pools[0]
		assert.Equal(t, common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"), pool.Address)
		assert.Equal(t, 1, pool.Index(asset.USDC))
		assert.Equal(t, "int128", pool.IndexType)
	})

	t.Run("balancer pool id", func(t *testing.T) {
		id := "0x96646936b91d6b9d7d0c47c496afbf3d6ec7b6f8000200000000000000000019"
		src, err := toLiquiditySource(config.SourceConfig{
			Name:   "balancer-v2",
			Model:  config.ModelWeighted,
			Chains: []uint64{1},
			Vault:  "0xBA12222222228d8Ba445958a75a0704d566BF2C8",
			Pools:  []config.PoolConfig{{ID: id, Tokens: []string{"USDC", "WETH"}}},
		}, registry)
		require.NoError(t, err)
		assert.Equal(t, common.HexToHash(id), src.Pools[0].ID)
		assert.True(t, src.Pools[0].Holds(asset.WETH, asset.USDC))
	})

	t.Run("unknown pool token", func(t *testing.T) {
		_, err := toLiquiditySource(config.SourceConfig{
			Name:   "curve",
			Model:  config.ModelStableSwap,
			Chains: []uint64{1},
			Pools:  []config.PoolConfig{{Name: "x", Tokens: []string{"DAI", "NOPE"}}},
		}, registry)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOPE")
	})
}
