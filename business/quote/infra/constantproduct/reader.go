package constantproduct

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

// Reader loads pair reserves through the venue's factory.
type Reader struct {
	caller *chain.Caller
}

// NewReader creates a Reader.
func NewReader(caller *chain.Caller) *Reader {
	return &Reader{caller: caller}
}

// ReadPoolState resolves the pair with getPair and reads getReserves and token0.
func (r *Reader) ReadPoolState(ctx context.Context, src domain.LiquiditySource, pair domain.Pair) (domain.PoolState, error) {
	out, err := r.caller.Call(ctx, src.Factory, FactoryABI, "getPair", pair.In.Address(), pair.Out.Address())
	if err != nil {
		return nil, err
	}
	pairAddr := out[0].(common.Address)
	if pairAddr == (common.Address{}) {
		return nil, apperror.New(apperror.CodePoolNotFound, apperror.WithContext(src.Name+" "+pair.String()))
	}

	reserves, err := r.caller.Call(ctx, pairAddr, PairABI, "getReserves")
	if err != nil {
		return nil, err
	}
	token0, err := r.caller.Call(ctx, pairAddr, PairABI, "token0")
	if err != nil {
		return nil, err
	}

	t0 := token0[0].(common.Address)
	t1 := pair.Out.Address()
	if t0 == t1 {
		t1 = pair.In.Address()
	}

	return domain.ReserveState{
		Pair:     pairAddr,
		Token0:   t0,
		Token1:   t1,
		Reserve0: reserves[0].(*big.Int),
		Reserve1: reserves[1].(*big.Int),
		FeeBps:   src.FeeBps,
	}, nil
}
