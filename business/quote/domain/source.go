// Package domain contains the core domain types for the quote context.
package domain

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/internal/asset"
)

// Model is the pricing model a venue implements.
type Model string

const (
	ModelConstantProduct Model = "constant_product"
	ModelWeighted        Model = "weighted"
	ModelStableSwap      Model = "stable_swap"
	ModelConcentrated    Model = "concentrated"
	ModelAggregator      Model = "aggregator"
)

// Kind says where the swap invariant is evaluated.
type Kind string

const (
	// KindLocal strategies compute the output in-process from pool state.
	KindLocal Kind = "local"
	// KindDelegated strategies ask the venue (or a router) to compute it.
	KindDelegated Kind = "delegated"
)

// Pair is an ordered swap direction.
type Pair struct {
	In  *asset.Asset
	Out *asset.Asset
}

// NewPair creates a new swap pair.
func NewPair(in, out *asset.Asset) Pair {
	if in == nil || out == nil {
		panic("quote: nil asset in pair")
	}
	return Pair{In: in, Out: out}
}

// String returns the pair symbol (e.g., "WETH/USDC").
func (p Pair) String() string {
	return p.In.Symbol() + "/" + p.Out.Symbol()
}

// Reverse returns the opposite direction.
func (p Pair) Reverse() Pair {
	return Pair{In: p.Out, Out: p.In}
}

// Pool is one configured pool of a multi-pool venue.
// ID is set for Balancer pools, Address for Curve pools.
type Pool struct {
	ID        common.Hash
	Address   common.Address
	Name      string
	Tokens    []*asset.Asset
	IndexType string
}

// Index returns the position of a in the pool's token list, or -1.
func (p Pool) Index(a *asset.Asset) int {
	return slices.IndexFunc(p.Tokens, a.Equals)
}

// Holds reports whether both assets are in the pool.
func (p Pool) Holds(a, b *asset.Asset) bool {
	return p.Index(a) >= 0 && p.Index(b) >= 0
}

// LiquiditySource is one configured venue. Immutable after startup.
type LiquiditySource struct {
	Name       string
	Protocol   string
	Model      Model
	Chains     []uint64
	Priority   int
	FeeBps     int64
	FeeTiers   []int64
	Factory    common.Address
	Router     common.Address
	Quoter     common.Address
	Vault      common.Address
	Pools      []Pool
	Aggregator string
}

// Kind derives the strategy kind from the model.
func (s LiquiditySource) Kind() Kind {
	if s.Model == ModelConstantProduct {
		return KindLocal
	}
	return KindDelegated
}

// SupportsChain reports whether the source is deployed on chainID.
// An empty chain list means every chain.
func (s LiquiditySource) SupportsChain(chainID uint64) bool {
	return len(s.Chains) == 0 || slices.Contains(s.Chains, chainID)
}

// Serves reports whether the source's configured token set covers the pair.
// Sources without a pool list can be asked for any pair.
func (s LiquiditySource) Serves(p Pair) bool {
	if len(s.Pools) == 0 {
		return true
	}
	var in, out bool
	for _, pool := range s.Pools {
		in = in || pool.Index(p.In) >= 0
		out = out || pool.Index(p.Out) >= 0
	}
	return in && out
}
