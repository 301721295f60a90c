package weighted_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/business/quote/infra/weighted"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
	"github.com/fd1az/quote-engine/internal/chain/chaintest"
)

var (
	vault      = common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")
	balWETH    = common.HexToHash("0x5c6ee304399dbdb9c8ef030ab642b10820db8f56000200000000000000000014")
	wethUSDC   = common.HexToHash("0x96646936b91d6b9d7d0c47c496afbf3d6ec7b6f8000200000000000000000019")
	oneBAL     = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	usdcPerBAL = big.NewInt(4_250_000)
)

func source() domain.LiquiditySource {
	return domain.LiquiditySource{
		Name:  "balancer-v2",
		Model: domain.ModelWeighted,
		Vault: vault,
		Pools: []domain.Pool{
			{ID: balWETH, Name: "B-80BAL-20WETH", Tokens: []*asset.Asset{asset.BAL, asset.WETH}},
			{ID: wethUSDC, Name: "WETH-USDC 50/50", Tokens: []*asset.Asset{asset.USDC, asset.WETH}},
		},
	}
}

type recorded struct {
	amounts []*big.Int
	assets  []common.Address
}

func newBackend(t *testing.T, rec *recorded) *chaintest.Backend {
	t.Helper()

	backend := chaintest.NewBackend()
	backend.Handle(vault, weighted.VaultABI, "getPoolTokens", func(args []any) ([]any, error) {
		id := args[0].([32]byte)
		var tokens []common.Address
		switch common.Hash(id) {
		case balWETH:
			tokens = []common.Address{asset.BAL.Address(), asset.WETH.Address()}
		case wethUSDC:
			tokens = []common.Address{asset.USDC.Address(), asset.WETH.Address()}
		}
		return []any{tokens, []*big.Int{big.NewInt(1), big.NewInt(1)}, big.NewInt(19_000_000)}, nil
	})
	backend.Handle(vault, weighted.VaultABI, "queryBatchSwap", func(args []any) ([]any, error) {
		assert.Equal(t, weighted.GivenIn, args[0].(uint8))

		swaps := args[1]
		rec.assets = args[2].([]common.Address)
		rec.amounts = nil
		for i := 0; i < chaintest.Len(swaps); i++ {
			rec.amounts = append(rec.amounts, chaintest.Field(chaintest.Index(swaps, i), "Amount").(*big.Int))
		}

		deltas := make([]*big.Int, len(rec.assets))
		for i := range deltas {
			deltas[i] = new(big.Int)
		}
		deltas[0].Set(rec.amounts[0])
		out := new(big.Int).Mul(rec.amounts[0], usdcPerBAL)
		deltas[len(deltas)-1].Neg(out.Quo(out, oneBAL))
		return []any{deltas}, nil
	})
	return backend
}

func TestStrategy_MultiHopThroughSharedToken(t *testing.T) {
	rec := &recorded{}
	caller := chain.NewCaller(newBackend(t, rec), "test")
	src := source()
	pair := domain.NewPair(asset.BAL, asset.USDC)

	state, err := weighted.NewReader(caller).ReadPoolState(context.Background(), src, pair)
	require.NoError(t, err)
	require.Len(t, state.(domain.WeightedState).Pools, 2)

	leg, err := weighted.NewStrategy(caller).Quote(context.Background(), src, state,
		asset.NewAmount(asset.BAL, new(big.Int).Mul(big.NewInt(2), oneBAL)), asset.USDC)
	require.NoError(t, err)

	assert.Equal(t, int64(8_500_000), leg.AmountOut.Raw().Int64())
	assert.Equal(t, []common.Address{asset.BAL.Address(), asset.WETH.Address(), asset.USDC.Address()}, rec.assets)
	require.Len(t, rec.amounts, 2)
	assert.Equal(t, 0, rec.amounts[0].Cmp(new(big.Int).Mul(big.NewInt(2), oneBAL)))
	assert.Zero(t, rec.amounts[1].Sign(), "second hop amount must be zero")
	require.Len(t, leg.Route, 2)
	assert.Equal(t, "WETH-USDC 50/50", leg.Route[1].Pool)
}

func TestStrategy_DirectPoolPreferred(t *testing.T) {
	rec := &recorded{}
	caller := chain.NewCaller(newBackend(t, rec), "test")
	src := source()
	pair := domain.NewPair(asset.WETH, asset.USDC)

	state, err := weighted.NewReader(caller).ReadPoolState(context.Background(), src, pair)
	require.NoError(t, err)

	leg, err := weighted.NewStrategy(caller).Quote(context.Background(), src, state, asset.NewAmount(asset.WETH, oneBAL), asset.USDC)
	require.NoError(t, err)
	assert.Len(t, rec.assets, 2)
	assert.Len(t, leg.Route, 1)
	assert.True(t, leg.AmountOut.IsPositive())
}

func TestStrategy_ZeroMakesNoCall(t *testing.T) {
	backend := chaintest.NewBackend()
	leg, err := weighted.NewStrategy(chain.NewCaller(backend, "test")).Quote(context.Background(), source(), nil,
		asset.Zero(asset.BAL), asset.USDC)
	require.NoError(t, err)
	assert.True(t, leg.AmountOut.IsZero())
	assert.Zero(t, backend.Calls())
}

func TestStrategy_NoRoute(t *testing.T) {
	state := domain.WeightedState{Vault: vault, Pools: []domain.WeightedPool{
		{ID: balWETH, Tokens: []common.Address{asset.BAL.Address(), asset.WETH.Address()}},
	}}
	_, err := weighted.NewStrategy(chain.NewCaller(chaintest.NewBackend(), "test")).Quote(context.Background(), source(), state,
		asset.NewAmount(asset.BAL, oneBAL), asset.DAI)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedPair), "got %v", err)
}
