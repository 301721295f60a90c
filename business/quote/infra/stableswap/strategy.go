package stableswap

import (
	"context"
	"math/big"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
)

var _ app.Strategy = (*Strategy)(nil)

// Strategy asks each Curve pool holding the pair for get_dy and keeps the best.
type Strategy struct {
	caller *chain.Caller
}

// NewStrategy creates a Strategy.
func NewStrategy(caller *chain.Caller) *Strategy {
	return &Strategy{caller: caller}
}

func (s *Strategy) Model() domain.Model { return domain.ModelStableSwap }

func (s *Strategy) Kind() domain.Kind { return domain.KindDelegated }

func (s *Strategy) Quote(ctx context.Context, src domain.LiquiditySource, state domain.PoolState, amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	if amountIn.IsZero() {
		return domain.ZeroLeg(src, amountIn, tokenOut), nil
	}

	ss, ok := state.(domain.StableState)
	if !ok {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext("expected stable state"))
	}

	var (
		best     *big.Int
		bestPool domain.StablePool
		lastErr  error
	)
	for _, pool := range ss.Pools {
		dy, err := s.getDy(ctx, pool, amountIn.Asset(), tokenOut, amountIn.Raw())
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || dy.Cmp(best) > 0 {
			best, bestPool = dy, pool
		}
	}

	if best == nil {
		if lastErr == nil {
			lastErr = apperror.New(apperror.CodeUnsupportedPair, apperror.WithContext(src.Name))
		}
		return nil, lastErr
	}

	gas := uint64(stableSwapGas)
	if bestPool.IndexType == IndexUint256 {
		gas = cryptoSwapGas
	}

	return &domain.QuoteLeg{
		Source:      src.Name,
		Model:       src.Model,
		Kind:        domain.KindDelegated,
		AmountIn:    amountIn,
		AmountOut:   asset.NewAmount(tokenOut, best),
		GasEstimate: gas,
		Route: []domain.Hop{{
			Venue:    src.Name,
			Pool:     bestPool.Name,
			TokenIn:  amountIn.Asset().Address(),
			TokenOut: tokenOut.Address(),
		}},
	}, nil
}

func (s *Strategy) getDy(ctx context.Context, pool domain.StablePool, in, out *asset.Asset, dx *big.Int) (*big.Int, error) {
	i, j := pool.Index(in.Address()), pool.Index(out.Address())
	if i < 0 || j < 0 {
		return nil, apperror.New(apperror.CodeUnsupportedPair, apperror.WithContext(pool.Name))
	}

	contract := PoolABI
	if pool.IndexType == IndexUint256 {
		contract = CryptoPoolABI
	}

	res, err := s.caller.Call(ctx, pool.Address, contract, "get_dy", big.NewInt(int64(i)), big.NewInt(int64(j)), dx)
	if err != nil {
		return nil, err
	}
	return res[0].(*big.Int), nil
}
