package weighted

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

// Reader reads pool composition from the vault.
type Reader struct {
	caller *chain.Caller
}

// NewReader creates a Reader.
func NewReader(caller *chain.Caller) *Reader {
	return &Reader{caller: caller}
}

// ReadPoolState calls getPoolTokens for every configured pool that holds
// either side of the pair.
func (r *Reader) ReadPoolState(ctx context.Context, src domain.LiquiditySource, pair domain.Pair) (domain.PoolState, error) {
	state := domain.WeightedState{Vault: src.Vault}

	for _, p := range src.Pools {
		if p.Index(pair.In) < 0 && p.Index(pair.Out) < 0 {
			continue
		}

		out, err := r.caller.Call(ctx, src.Vault, VaultABI, "getPoolTokens", [32]byte(p.ID))
		if err != nil {
			return nil, err
		}

		state.Pools = append(state.Pools, domain.WeightedPool{
			ID:              p.ID,
			Name:            p.Name,
			Tokens:          out[0].([]common.Address),
			Balances:        out[1].([]*big.Int),
			LastChangeBlock: out[2].(*big.Int),
		})
	}

	if len(state.Pools) == 0 {
		return nil, apperror.New(apperror.CodePoolNotFound, apperror.WithContext(src.Name+" "+pair.String()))
	}
	return state, nil
}
