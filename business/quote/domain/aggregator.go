package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/internal/asset"
)

// AggregatorRequest asks an off-chain router for an exact-input quote.
type AggregatorRequest struct {
	ChainID     uint64
	TokenIn     *asset.Asset
	TokenOut    *asset.Asset
	AmountIn    asset.Amount
	SlippageBps int64
	// Recipient is only used by routers that build calldata alongside the quote.
	Recipient common.Address
}

// AggregatorResponse is a router's answer in raw units.
type AggregatorResponse struct {
	AmountOut    *big.Int
	GasEstimate  uint64
	Route        []Hop
	Composition  []RouteSplit
	AmountInUSD  decimal.NullDecimal
	AmountOutUSD decimal.NullDecimal
}
