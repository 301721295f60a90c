// Package app contains application services and port definitions for the quote context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
)

// Strategy prices an exact-input swap on one kind of venue.
type Strategy interface {
	Model() domain.Model
	Kind() domain.Kind

	// Quote returns the expected output for amountIn. A zero amountIn yields
	// a zero output without touching the venue. state is nil for aggregators.
	Quote(ctx context.Context, src domain.LiquiditySource, state domain.PoolState,
		amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error)
}

// PoolStateReader reads a fresh venue snapshot for a pair.
type PoolStateReader interface {
	ReadPoolState(ctx context.Context, src domain.LiquiditySource, pair domain.Pair) (domain.PoolState, error)
}

// AggregatorClient talks to one off-chain router.
type AggregatorClient interface {
	Name() string
	SupportsChain(chainID uint64) bool
	FetchQuote(ctx context.Context, req domain.AggregatorRequest) (*domain.AggregatorResponse, error)
}

// GasPricer converts a gas estimate into a native-token cost.
type GasPricer interface {
	GasCost(ctx context.Context, gas uint64) (asset.Amount, error)
}

// TokenMetadataReader discovers tokens that are not configured.
type TokenMetadataReader interface {
	TokenMetadata(ctx context.Context, token common.Address) (chain.TokenMetadata, error)
}

// Journal records served quotes.
type Journal interface {
	Record(ctx context.Context, q *domain.Quote) error
}

// Venue binds a configured source to the code that prices it.
// Reader is nil for sources that need no on-chain state.
type Venue struct {
	Source   domain.LiquiditySource
	Reader   PoolStateReader
	Strategy Strategy
}
