package constantproduct

import (
	"context"
	"time"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
)

var _ app.Strategy = (*Strategy)(nil)

// Strategy prices constant-product pairs in-process.
type Strategy struct{}

// NewStrategy creates a Strategy.
func NewStrategy() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Model() domain.Model { return domain.ModelConstantProduct }

func (s *Strategy) Kind() domain.Kind { return domain.KindLocal }

func (s *Strategy) Quote(_ context.Context, src domain.LiquiditySource, state domain.PoolState, amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	if amountIn.IsZero() {
		return domain.ZeroLeg(src, amountIn, tokenOut), nil
	}

	rs, ok := state.(domain.ReserveState)
	if !ok {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext("expected reserve state"))
	}

	tokenIn := amountIn.Asset()
	reserveIn, reserveOut, err := rs.Oriented(tokenIn.Address())
	if err != nil {
		return nil, err
	}

	out, err := AmountOut(amountIn.Raw(), reserveIn, reserveOut, rs.FeeBps)
	if err != nil {
		return nil, err
	}

	spot := domain.SpotPrice(rs, domain.NewPair(tokenIn, tokenOut), time.Now())

	return &domain.QuoteLeg{
		Source:      src.Name,
		Model:       src.Model,
		Kind:        domain.KindLocal,
		AmountIn:    amountIn,
		AmountOut:   asset.NewAmount(tokenOut, out),
		GasEstimate: swapGas,
		Route: []domain.Hop{{
			Venue:    src.Name,
			Pool:     rs.Pair.Hex(),
			TokenIn:  tokenIn.Address(),
			TokenOut: tokenOut.Address(),
			Fee:      rs.FeeBps,
		}},
		SpotPrice: spot,
	}, nil
}
