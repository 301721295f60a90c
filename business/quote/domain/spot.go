package domain

import (
	"math/big"
	"time"

	"github.com/fd1az/quote-engine/internal/asset"
)

// q192 is 2^192, the square of the Q64.96 scale.
var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// SpotPrice is the marginal price of out per unit of in.
// sqrtPriceX96 encodes sqrt(token1/token0) in raw units, so for in == token0
//
//	price = sqrtPriceX96² · 10^decIn / (2^192 · 10^decOut)
//
// and the reciprocal form is used when in is token1.
func (p TickPool) SpotPrice(in, out *asset.Asset, ts time.Time) asset.Price {
	if p.SqrtPriceX96 == nil || p.SqrtPriceX96.Sign() == 0 {
		return asset.NewPriceFromBigInt(in, out, big.NewInt(0), ts)
	}

	sq := new(big.Int).Mul(p.SqrtPriceX96, p.SqrtPriceX96)
	scaleIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(in.Decimals())+asset.PricePrecision), nil)
	scaleOut := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(out.Decimals())), nil)

	num := new(big.Int)
	den := new(big.Int)
	if in.Address() == p.Token0 {
		num.Mul(sq, scaleIn)
		den.Mul(q192, scaleOut)
	} else {
		num.Mul(q192, scaleIn)
		den.Mul(sq, scaleOut)
	}

	return asset.NewPriceFromBigInt(in, out, num.Quo(num, den), ts)
}

// SpotPrice derives a marginal price from a snapshot where the model exposes
// one: reserve ratio for constant-product pairs, the deepest tier's
// sqrtPriceX96 for concentrated pools. Other models return nil.
func SpotPrice(state PoolState, pair Pair, ts time.Time) *asset.Price {
	switch s := state.(type) {
	case ReserveState:
		rIn, rOut, err := s.Oriented(pair.In.Address())
		if err != nil {
			return nil
		}
		p := asset.PriceFromAmounts(asset.NewAmount(pair.In, rIn), asset.NewAmount(pair.Out, rOut), ts)
		return &p
	case TickState:
		var deepest *TickPool
		for i := range s.Pools {
			if deepest == nil || s.Pools[i].Liquidity.Cmp(deepest.Liquidity) > 0 {
				deepest = &s.Pools[i]
			}
		}
		if deepest == nil {
			return nil
		}
		p := deepest.SpotPrice(pair.In, pair.Out, ts)
		return &p
	default:
		return nil
	}
}
