package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
)

// MaxBps is 100% in basis points.
const MaxBps = 10_000

// Provenance tells whether a quote came from a venue or from the fallback table.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceSimulated Provenance = "simulated"
)

// Hop is one swap inside a route.
type Hop struct {
	Venue    string         `json:"venue"`
	Pool     string         `json:"pool,omitempty"`
	TokenIn  common.Address `json:"tokenIn"`
	TokenOut common.Address `json:"tokenOut"`
	Fee      int64          `json:"fee,omitempty"`
}

// RouteSplit is the share of the input routed through one venue.
type RouteSplit struct {
	Venue      string          `json:"venue"`
	Proportion decimal.Decimal `json:"proportion"`
}

// QuoteLeg is one source's answer for a request.
type QuoteLeg struct {
	Source       string
	Model        Model
	Kind         Kind
	AmountIn     asset.Amount
	AmountOut    asset.Amount
	GasEstimate  uint64
	Route        []Hop
	Composition  []RouteSplit
	AmountInUSD  decimal.NullDecimal
	AmountOutUSD decimal.NullDecimal
	SpotPrice    *asset.Price
	FeeTier      int64
}

// ZeroLeg is the answer every strategy gives for a zero input.
func ZeroLeg(src LiquiditySource, amountIn asset.Amount, tokenOut *asset.Asset) *QuoteLeg {
	return &QuoteLeg{
		Source:    src.Name,
		Model:     src.Model,
		Kind:      src.Kind(),
		AmountIn:  amountIn,
		AmountOut: asset.Zero(tokenOut),
	}
}

// PriceImpact is (1 - outUSD/inUSD) * 100 when both USD values are known.
func (l QuoteLeg) PriceImpact() decimal.NullDecimal {
	if !l.AmountInUSD.Valid || !l.AmountOutUSD.Valid || !l.AmountInUSD.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	ratio := l.AmountOutUSD.Decimal.Div(l.AmountInUSD.Decimal)
	return decimal.NewNullDecimal(decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100)))
}

// SourceStatus is the per-source result of a dispatch.
type SourceStatus string

const (
	SourceSucceeded   SourceStatus = "succeeded"
	SourceUnavailable SourceStatus = "unavailable"
)

// SourceOutcome records what one source did for a request.
type SourceOutcome struct {
	Source    string        `json:"source"`
	Status    SourceStatus  `json:"status"`
	AmountOut *big.Int      `json:"amountOut,omitempty"`
	Code      apperror.Code `json:"code,omitempty"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
}

// DispatchOutcome summarises a fan-out.
type DispatchOutcome string

const (
	DispatchAllSucceeded   DispatchOutcome = "all_succeeded"
	DispatchPartialFailure DispatchOutcome = "partial_failure"
	DispatchAllFailed      DispatchOutcome = "all_failed"
	DispatchNoCandidates   DispatchOutcome = "no_candidates"
)

// Quote is the engine's answer. Never mutated after NewQuote.
type Quote struct {
	ID           uuid.UUID
	ChainID      uint64
	TokenIn      *asset.Asset
	TokenOut     *asset.Asset
	AmountIn     asset.Amount
	AmountOut    asset.Amount
	UnitPrice    asset.Price
	PriceImpact  decimal.NullDecimal
	Route        []Hop
	Composition  []RouteSplit
	GasEstimate  uint64
	GasCost      *asset.Amount
	Provenance   Provenance
	Source       string
	Model        Model
	SlippageBps  int64
	MinAmountOut asset.Amount
	Outcome      DispatchOutcome
	Sources      []SourceOutcome
	CreatedAt    time.Time
}

// QuoteParams carries what NewQuote needs beyond the winning leg.
type QuoteParams struct {
	ChainID     uint64
	SlippageBps int64
	Provenance  Provenance
	PriceImpact decimal.NullDecimal
	GasCost     *asset.Amount
	Outcome     DispatchOutcome
	Sources     []SourceOutcome
	Now         time.Time
}

// NewQuote builds a quote from its winning leg.
func NewQuote(leg QuoteLeg, p QuoteParams) (*Quote, error) {
	minOut, err := MinAmountOut(leg.AmountOut, p.SlippageBps)
	if err != nil {
		return nil, err
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &Quote{
		ID:           uuid.New(),
		ChainID:      p.ChainID,
		TokenIn:      leg.AmountIn.Asset(),
		TokenOut:     leg.AmountOut.Asset(),
		AmountIn:     leg.AmountIn,
		AmountOut:    leg.AmountOut,
		UnitPrice:    asset.PriceFromAmounts(leg.AmountIn, leg.AmountOut, now),
		PriceImpact:  p.PriceImpact,
		Route:        leg.Route,
		Composition:  leg.Composition,
		GasEstimate:  leg.GasEstimate,
		GasCost:      p.GasCost,
		Provenance:   p.Provenance,
		Source:       leg.Source,
		Model:        leg.Model,
		SlippageBps:  p.SlippageBps,
		MinAmountOut: minOut,
		Outcome:      p.Outcome,
		Sources:      p.Sources,
		CreatedAt:    now,
	}, nil
}

// IsLive reports whether at least one venue answered.
func (q *Quote) IsLive() bool {
	return q.Provenance == ProvenanceLive
}

// Pair returns the swap direction.
func (q *Quote) Pair() Pair {
	return NewPair(q.TokenIn, q.TokenOut)
}

// ValidateSlippage rejects tolerances outside [0, 10000] bps.
func ValidateSlippage(bps int64) error {
	if bps < 0 || bps > MaxBps {
		return apperror.New(apperror.CodeInvalidSlippage,
			apperror.WithContext("slippage must be between 0 and 10000 bps"))
	}
	return nil
}

// MinAmountOut is amountOut * (10000 - slippageBps) / 10000, floored.
func MinAmountOut(amountOut asset.Amount, slippageBps int64) (asset.Amount, error) {
	if err := ValidateSlippage(slippageBps); err != nil {
		return asset.Amount{}, err
	}
	return amountOut.MulDiv(MaxBps-slippageBps, MaxBps)
}
