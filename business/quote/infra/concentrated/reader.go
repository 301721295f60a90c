package concentrated

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/chain"
)

var _ app.PoolStateReader = (*Reader)(nil)

// Reader finds the pool of the pair at each fee tier and reads its slot0
// and liquidity. Tiers without a pool are left out of the state.
type Reader struct {
	caller *chain.Caller
}

// NewReader creates a Reader.
func NewReader(caller *chain.Caller) *Reader {
	return &Reader{caller: caller}
}

func (r *Reader) ReadPoolState(ctx context.Context, src domain.LiquiditySource, pair domain.Pair) (domain.PoolState, error) {
	token0, token1 := sortTokens(pair.In.Address(), pair.Out.Address())

	var state domain.TickState
	for _, fee := range src.FeeTiers {
		res, err := r.caller.Call(ctx, src.Factory, FactoryABI, "getPool", token0, token1, big.NewInt(fee))
		if err != nil {
			return nil, err
		}
		addr := res[0].(common.Address)
		if addr == (common.Address{}) {
			continue
		}

		slot0, err := r.caller.Call(ctx, addr, PoolABI, "slot0")
		if err != nil {
			return nil, err
		}
		liq, err := r.caller.Call(ctx, addr, PoolABI, "liquidity")
		if err != nil {
			return nil, err
		}

		state.Pools = append(state.Pools, domain.TickPool{
			Address:      addr,
			Fee:          fee,
			Token0:       token0,
			Token1:       token1,
			SqrtPriceX96: slot0[0].(*big.Int),
			Tick:         slot0[1].(*big.Int).Int64(),
			Liquidity:    liq[0].(*big.Int),
		})
	}

	if len(state.Pools) == 0 {
		return nil, apperror.New(apperror.CodePoolNotFound, apperror.WithContext(src.Name+" "+pair.String()))
	}
	return state, nil
}

func sortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}
