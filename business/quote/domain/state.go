package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/internal/apperror"
)

// PoolState is an immutable venue snapshot read for one request.
type PoolState interface {
	Model() Model
}

// ReserveState is a constant-product pair.
type ReserveState struct {
	Pair     common.Address
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
	FeeBps   int64
}

func (ReserveState) Model() Model { return ModelConstantProduct }

// Oriented returns (reserveIn, reserveOut) for a swap selling tokenIn.
func (s ReserveState) Oriented(tokenIn common.Address) (*big.Int, *big.Int, error) {
	switch tokenIn {
	case s.Token0:
		return s.Reserve0, s.Reserve1, nil
	case s.Token1:
		return s.Reserve1, s.Reserve0, nil
	default:
		return nil, nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext(tokenIn.Hex()+" not in pair "+s.Pair.Hex()))
	}
}

// WeightedPool is one Balancer pool as reported by the vault.
type WeightedPool struct {
	ID              common.Hash
	Name            string
	Tokens          []common.Address
	Balances        []*big.Int
	LastChangeBlock *big.Int
}

// WeightedState is the vault view of every configured pool.
type WeightedState struct {
	Vault common.Address
	Pools []WeightedPool
}

func (WeightedState) Model() Model { return ModelWeighted }

// StablePool is one Curve pool.
type StablePool struct {
	Address   common.Address
	Name      string
	Coins     []common.Address
	Balances  []*big.Int
	A         *big.Int
	Fee       *big.Int
	IndexType string
}

// Index returns the coin position of token, or -1.
func (p StablePool) Index(token common.Address) int {
	for i, c := range p.Coins {
		if c == token {
			return i
		}
	}
	return -1
}

// StableState holds every configured Curve pool.
type StableState struct {
	Pools []StablePool
}

func (StableState) Model() Model { return ModelStableSwap }

// TickPool is one concentrated-liquidity pool at a fee tier.
type TickPool struct {
	Address      common.Address
	Fee          int64
	Token0       common.Address
	Token1       common.Address
	SqrtPriceX96 *big.Int
	Tick         int64
	Liquidity    *big.Int
}

// TickState holds the pools that exist for a pair across fee tiers.
type TickState struct {
	Pools []TickPool
}

func (TickState) Model() Model { return ModelConcentrated }

// Pool returns the pool at fee, if one exists.
func (s TickState) Pool(fee int64) (TickPool, bool) {
	for _, p := range s.Pools {
		if p.Fee == fee {
			return p, true
		}
	}
	return TickPool{}, false
}
