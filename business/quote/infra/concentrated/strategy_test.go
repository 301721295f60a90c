package concentrated_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/business/quote/infra/concentrated"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
	"github.com/fd1az/quote-engine/internal/chain/chaintest"
	"github.com/fd1az/quote-engine/internal/logger"
)

var (
	factory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	quoter  = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	pool500 = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	pool3k  = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
	q96     = new(big.Int).Lsh(big.NewInt(1), 96)
	oneWETH = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

func source() domain.LiquiditySource {
	return domain.LiquiditySource{
		Name:     "uniswap-v3",
		Model:    domain.ModelConcentrated,
		FeeTiers: []int64{100, 500, 3000, 10000},
		Factory:  factory,
		Quoter:   quoter,
	}
}

type quoterCalls struct {
	fees []int64
}

func newBackend(t *testing.T, calls *quoterCalls) *chaintest.Backend {
	t.Helper()

	pools := map[int64]common.Address{500: pool500, 3000: pool3k}
	outs := map[int64]int64{500: 1_995_000_000, 3000: 1_990_000_000}

	backend := chaintest.NewBackend()
	backend.Handle(factory, concentrated.FactoryABI, "getPool", func(args []any) ([]any, error) {
		// Tokens arrive sorted.
		assert.Equal(t, asset.USDC.Address(), args[0].(common.Address))
		return []any{pools[args[2].(*big.Int).Int64()]}, nil
	})
	for _, addr := range []common.Address{pool500, pool3k} {
		backend.Returns(addr, concentrated.PoolABI, "slot0", q96, big.NewInt(-276324))
		backend.Returns(addr, concentrated.PoolABI, "liquidity", big.NewInt(1e18))
	}
	backend.Handle(quoter, concentrated.QuoterV2ABI, "quoteExactInputSingle", func(args []any) ([]any, error) {
		fee := chaintest.Field(args[0], "Fee").(*big.Int).Int64()
		calls.fees = append(calls.fees, fee)
		return []any{big.NewInt(outs[fee]), q96, uint32(1), big.NewInt(110_000 + fee)}, nil
	})
	return backend
}

func newStrategy(t *testing.T, caller *chain.Caller) *concentrated.Strategy {
	t.Helper()
	s, err := concentrated.NewStrategy(caller, logger.NewNop())
	require.NoError(t, err)
	return s
}

func TestStrategy_BestFeeTier(t *testing.T) {
	calls := &quoterCalls{}
	caller := chain.NewCaller(newBackend(t, calls), "test")
	src := source()
	pair := domain.NewPair(asset.WETH, asset.USDC)

	state, err := concentrated.NewReader(caller).ReadPoolState(context.Background(), src, pair)
	require.NoError(t, err)

	ts := state.(domain.TickState)
	require.Len(t, ts.Pools, 2)
	assert.Equal(t, int64(-276324), ts.Pools[0].Tick)

	leg, err := newStrategy(t, caller).Quote(context.Background(), src, state, asset.NewAmount(asset.WETH, oneWETH), asset.USDC)
	require.NoError(t, err)

	assert.Equal(t, []int64{500, 3000}, calls.fees, "tiers without a pool are skipped")
	assert.Equal(t, int64(1_995_000_000), leg.AmountOut.Raw().Int64())
	assert.Equal(t, int64(500), leg.FeeTier)
	assert.Equal(t, uint64(110_500), leg.GasEstimate)
	assert.Equal(t, pool500.Hex(), leg.Route[0].Pool)

	require.NotNil(t, leg.SpotPrice)
	want := ts.Pools[0].SpotPrice(asset.WETH, asset.USDC, leg.SpotPrice.Timestamp())
	assert.True(t, want.Rate().Equal(leg.SpotPrice.Rate()))
}

func TestStrategy_NoStateTriesEveryTier(t *testing.T) {
	calls := &quoterCalls{}
	caller := chain.NewCaller(newBackend(t, calls), "test")

	leg, err := newStrategy(t, caller).Quote(context.Background(), source(), nil, asset.NewAmount(asset.WETH, oneWETH), asset.USDC)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 500, 3000, 10000}, calls.fees)
	assert.Equal(t, int64(500), leg.FeeTier)
	assert.Nil(t, leg.SpotPrice)
}

func TestReader_NoPool(t *testing.T) {
	backend := chaintest.NewBackend()
	backend.Returns(factory, concentrated.FactoryABI, "getPool", common.Address{})

	_, err := concentrated.NewReader(chain.NewCaller(backend, "test")).ReadPoolState(context.Background(), source(),
		domain.NewPair(asset.WETH, asset.CAKE))
	assert.True(t, apperror.HasCode(err, apperror.CodePoolNotFound), "got %v", err)
}

func TestStrategy_ZeroMakesNoCall(t *testing.T) {
	backend := chaintest.NewBackend()
	leg, err := newStrategy(t, chain.NewCaller(backend, "test")).Quote(context.Background(), source(), nil,
		asset.Zero(asset.WETH), asset.USDC)
	require.NoError(t, err)
	assert.True(t, leg.AmountOut.IsZero())
	assert.Zero(t, backend.Calls())
}
