package app_test

import (
	"context"
	"math/big"
	"time"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/asset"
)

// fakeStrategy answers with a fixed output, error or delay.
type fakeStrategy struct {
	out   *big.Int
	gas   uint64
	err   error
	delay time.Duration
	// ignoreCtx keeps sleeping past cancellation.
	ignoreCtx bool
}

func (f fakeStrategy) Model() domain.Model { return domain.ModelAggregator }
func (f fakeStrategy) Kind() domain.Kind   { return domain.KindDelegated }

func (f fakeStrategy) Quote(ctx context.Context, src domain.LiquiditySource, _ domain.PoolState,
	amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.delay):
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.QuoteLeg{
		Source:      src.Name,
		Model:       src.Model,
		Kind:        domain.KindDelegated,
		AmountIn:    amountIn,
		AmountOut:   asset.NewAmount(tokenOut, new(big.Int).Set(f.out)),
		GasEstimate: f.gas,
		Route:       []domain.Hop{{Venue: src.Name, TokenIn: amountIn.Asset().Address(), TokenOut: tokenOut.Address()}},
	}, nil
}

type fakeGas struct{}

func (fakeGas) GasCost(_ context.Context, gas uint64) (asset.Amount, error) {
	// 10 gwei.
	return asset.NewAmount(asset.ETH, new(big.Int).Mul(new(big.Int).SetUint64(gas), big.NewInt(10_000_000_000))), nil
}

func source(name string, priority int) domain.LiquiditySource {
	return domain.LiquiditySource{Name: name, Model: domain.ModelAggregator, Chains: []uint64{1}, Priority: priority}
}

func usdc(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func oneWETH() asset.Amount {
	return asset.NewAmount(asset.WETH, big.NewInt(1e18))
}
