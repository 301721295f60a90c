package weighted

import (
	"context"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
)

var _ app.Strategy = (*Strategy)(nil)

// Strategy delegates the weighted invariant to the vault's queryBatchSwap.
type Strategy struct {
	caller *chain.Caller
}

// NewStrategy creates a Strategy.
func NewStrategy(caller *chain.Caller) *Strategy {
	return &Strategy{caller: caller}
}

func (s *Strategy) Model() domain.Model { return domain.ModelWeighted }

func (s *Strategy) Kind() domain.Kind { return domain.KindDelegated }

// Quote routes through a pool holding both tokens, or through two pools
// sharing an intermediate token.
func (s *Strategy) Quote(ctx context.Context, src domain.LiquiditySource, state domain.PoolState, amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	if amountIn.IsZero() {
		return domain.ZeroLeg(src, amountIn, tokenOut), nil
	}

	ws, ok := state.(domain.WeightedState)
	if !ok {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext("expected weighted state"))
	}

	in, out := amountIn.Asset().Address(), tokenOut.Address()
	path, ok := findPath(ws.Pools, in, out)
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext(src.Name+" has no route "+amountIn.Asset().Symbol()+"/"+tokenOut.Symbol()))
	}

	swaps, assets := path.batch(amountIn.Raw())
	res, err := s.caller.Call(ctx, ws.Vault, VaultABI, "queryBatchSwap", GivenIn, swaps, assets, FundManagement{})
	if err != nil {
		return nil, err
	}

	deltas := res[0].([]*big.Int)
	if len(deltas) != len(assets) {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext("delta count mismatch"))
	}

	// The vault reports what leaves it as a negative delta.
	amountOut := new(big.Int).Neg(deltas[len(deltas)-1])
	if amountOut.Sign() < 0 {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext("positive output delta"))
	}

	return &domain.QuoteLeg{
		Source:      src.Name,
		Model:       src.Model,
		Kind:        domain.KindDelegated,
		AmountIn:    amountIn,
		AmountOut:   asset.NewAmount(tokenOut, amountOut),
		GasEstimate: uint64(baseGas + hopGas*len(swaps)),
		Route:       path.hops(src.Name),
	}, nil
}

// path is one or two pools joined by assets.
type path struct {
	pools  []domain.WeightedPool
	assets []common.Address
}

func findPath(pools []domain.WeightedPool, in, out common.Address) (path, bool) {
	for _, p := range pools {
		if slices.Contains(p.Tokens, in) && slices.Contains(p.Tokens, out) {
			return path{pools: []domain.WeightedPool{p}, assets: []common.Address{in, out}}, true
		}
	}

	for _, first := range pools {
		if !slices.Contains(first.Tokens, in) {
			continue
		}
		for _, mid := range first.Tokens {
			if mid == in || mid == out {
				continue
			}
			for _, second := range pools {
				if second.ID == first.ID {
					continue
				}
				if slices.Contains(second.Tokens, mid) && slices.Contains(second.Tokens, out) {
					return path{
						pools:  []domain.WeightedPool{first, second},
						assets: []common.Address{in, mid, out},
					}, true
				}
			}
		}
	}
	return path{}, false
}

// batch builds GIVEN_IN steps. Only the first step carries an amount; the
// vault feeds each step's output into the next when the amount is zero.
func (p path) batch(amountIn *big.Int) ([]BatchSwapStep, []common.Address) {
	steps := make([]BatchSwapStep, len(p.pools))
	for i, pool := range p.pools {
		amount := new(big.Int)
		if i == 0 {
			amount.Set(amountIn)
		}
		steps[i] = BatchSwapStep{
			PoolId:        pool.ID,
			AssetInIndex:  big.NewInt(int64(i)),
			AssetOutIndex: big.NewInt(int64(i + 1)),
			Amount:        amount,
			UserData:      []byte{},
		}
	}
	return steps, p.assets
}

func (p path) hops(venue string) []domain.Hop {
	hops := make([]domain.Hop, len(p.pools))
	for i, pool := range p.pools {
		hops[i] = domain.Hop{
			Venue:    venue,
			Pool:     pool.Name,
			TokenIn:  p.assets[i],
			TokenOut: p.assets[i+1],
		}
	}
	return hops
}
