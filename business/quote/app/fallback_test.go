package app_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/config"
)

func TestSimulationTable_Lookup(t *testing.T) {
	table := newTable(t)

	tests := []struct {
		name    string
		source  string
		pair    domain.Pair
		amount  asset.Amount
		want    string
		wantSrc string
		impact  bool
	}{
		{
			name:    "scales linearly",
			pair:    domain.NewPair(asset.WETH, asset.USDC),
			amount:  asset.NewAmount(asset.WETH, big.NewInt(25e17)),
			want:    "5000000000",
			wantSrc: app.SimulatedSource,
			impact:  true,
		},
		{
			name:    "source specific entry",
			source:  "uniswap-v3",
			pair:    domain.NewPair(asset.WETH, asset.USDC),
			amount:  oneWETH(),
			want:    "1995000000",
			wantSrc: "uniswap-v3",
		},
		{
			// Only USDT->WBTC is configured: 10000 USDT buys 0.3745 WBTC.
			name:    "reverse entry is inverted",
			pair:    domain.NewPair(asset.WBTC, asset.USDT),
			amount:  asset.NewAmount(asset.WBTC, big.NewInt(37_450_000)),
			want:    "10000000000",
			wantSrc: app.SimulatedSource,
		},
		{
			name:    "zero input",
			pair:    domain.NewPair(asset.WETH, asset.USDC),
			amount:  asset.Zero(asset.WETH),
			want:    "0",
			wantSrc: app.SimulatedSource,
			impact:  true,
		},
		{
			name:    "unknown pair yields zero",
			pair:    domain.NewPair(asset.DAI, asset.WBTC),
			amount:  asset.NewAmount(asset.DAI, big.NewInt(1e18)),
			want:    "0",
			wantSrc: app.SimulatedSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg, impact := table.Lookup(tt.source, tt.pair, tt.amount)
			assert.Equal(t, tt.want, leg.AmountOut.Raw().String())
			assert.Equal(t, tt.wantSrc, leg.Source)
			assert.Equal(t, tt.pair.Out, leg.AmountOut.Asset())
			assert.Equal(t, tt.impact, impact.Valid)
		})
	}
}

func TestSimulationTable_Composition(t *testing.T) {
	leg, _ := newTable(t).Lookup("0x", domain.NewPair(asset.WETH, asset.USDC), oneWETH())

	require.Len(t, leg.Composition, 2)
	assert.Equal(t, "Uniswap_V3", leg.Composition[0].Venue)
	assert.Equal(t, "0.8", leg.Composition[0].Proportion.String())
	assert.Equal(t, uint64(150000), leg.GasEstimate)
}

func TestSimulationTable_ServesChain(t *testing.T) {
	table := newTable(t)
	assert.True(t, table.ServesChain(asset.ChainIDEthereum))
	assert.False(t, table.ServesChain(137))

	var nilTable *app.SimulationTable
	assert.False(t, nilTable.ServesChain(asset.ChainIDEthereum))
}

func TestNewSimulationTable_Errors(t *testing.T) {
	tests := []struct {
		name  string
		entry config.SimulationEntry
	}{
		{"unknown token", config.SimulationEntry{TokenIn: "NOPE", TokenOut: "USDC", AmountIn: "1", AmountOut: "1"}},
		{"zero amount in", config.SimulationEntry{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "0", AmountOut: "1"}},
		{"too precise", config.SimulationEntry{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1", AmountOut: "1.0000001"}},
		{"bad impact", config.SimulationEntry{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1", AmountOut: "1", PriceImpactPct: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.NewSimulationTable([]config.SimulationEntry{tt.entry}, asset.DefaultRegistry(), asset.ChainIDEthereum)
			assert.True(t, apperror.HasCode(err, apperror.CodeConfigurationError), "got %v", err)
		})
	}
}
