package stableswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/chain"
)

var _ app.PoolStateReader = (*Reader)(nil)

// Reader reads coins, balances, amplification and fee of each pool that
// holds the pair.
type Reader struct {
	caller *chain.Caller
}

// NewReader creates a Reader.
func NewReader(caller *chain.Caller) *Reader {
	return &Reader{caller: caller}
}

func (r *Reader) ReadPoolState(ctx context.Context, src domain.LiquiditySource, pair domain.Pair) (domain.PoolState, error) {
	var state domain.StableState

	for _, p := range src.Pools {
		if !p.Holds(pair.In, pair.Out) {
			continue
		}
		pool, err := r.readPool(ctx, p)
		if err != nil {
			return nil, err
		}
		state.Pools = append(state.Pools, pool)
	}

	if len(state.Pools) == 0 {
		return nil, apperror.New(apperror.CodePoolNotFound, apperror.WithContext(src.Name+" "+pair.String()))
	}
	return state, nil
}

func (r *Reader) readPool(ctx context.Context, p domain.Pool) (domain.StablePool, error) {
	pool := domain.StablePool{
		Address:   p.Address,
		Name:      p.Name,
		IndexType: p.IndexType,
	}

	for i := range p.Tokens {
		idx := big.NewInt(int64(i))

		coin, err := r.caller.Call(ctx, p.Address, PoolABI, "coins", idx)
		if err != nil {
			return domain.StablePool{}, err
		}
		bal, err := r.caller.Call(ctx, p.Address, PoolABI, "balances", idx)
		if err != nil {
			return domain.StablePool{}, err
		}
		pool.Coins = append(pool.Coins, coin[0].(common.Address))
		pool.Balances = append(pool.Balances, bal[0].(*big.Int))
	}

	a, err := r.caller.Call(ctx, p.Address, PoolABI, "A")
	if err != nil {
		return domain.StablePool{}, err
	}
	fee, err := r.caller.Call(ctx, p.Address, PoolABI, "fee")
	if err != nil {
		return domain.StablePool{}, err
	}
	pool.A = a[0].(*big.Int)
	pool.Fee = fee[0].(*big.Int)

	return pool, nil
}
