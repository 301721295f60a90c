package concentrated

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
	"github.com/fd1az/quote-engine/internal/logger"
)

const (
	tracerName = "concentrated"
	meterName  = "concentrated"
)

var _ app.Strategy = (*Strategy)(nil)

type strategyMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Strategy asks the venue's QuoterV2 for every fee tier and keeps the
// highest output.
type Strategy struct {
	caller  *chain.Caller
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *strategyMetrics
}

// NewStrategy creates a Strategy.
func NewStrategy(caller *chain.Caller, log logger.LoggerInterface) (*Strategy, error) {
	s := &Strategy{
		caller: caller,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return s, nil
}

func (s *Strategy) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &strategyMetrics{}

	s.metrics.quotesTotal, err = meter.Int64Counter(
		"concentrated_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteLatency, err = meter.Float64Histogram(
		"concentrated_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteErrors, err = meter.Int64Counter(
		"concentrated_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	return err
}

func (s *Strategy) Model() domain.Model { return domain.ModelConcentrated }

func (s *Strategy) Kind() domain.Kind { return domain.KindDelegated }

// Quote tries the tiers that have a pool in state, or every configured tier
// when state is nil.
func (s *Strategy) Quote(ctx context.Context, src domain.LiquiditySource, state domain.PoolState, amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	if amountIn.IsZero() {
		return domain.ZeroLeg(src, amountIn, tokenOut), nil
	}

	tokenIn := amountIn.Asset()
	ctx, span := s.tracer.Start(ctx, "concentrated.quote",
		trace.WithAttributes(
			attribute.String("source", src.Name),
			attribute.String("token_in", tokenIn.Address().Hex()),
			attribute.String("token_out", tokenOut.Address().Hex()),
			attribute.String("amount_in", amountIn.Raw().String()),
		),
	)
	defer span.End()

	start := time.Now()
	s.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", src.Name)))

	ts, _ := state.(domain.TickState)

	var (
		best    *QuoteResult
		bestFee int64
		lastErr error
	)
	for _, fee := range src.FeeTiers {
		if state != nil {
			if _, ok := ts.Pool(fee); !ok {
				continue
			}
		}

		q, err := s.quoteTier(ctx, src, tokenIn, tokenOut, amountIn.Raw(), fee)
		if err != nil {
			lastErr = err
			span.AddEvent("fee_tier_failed",
				trace.WithAttributes(
					attribute.Int64("fee_tier", fee),
					attribute.String("error", err.Error()),
				),
			)
			continue
		}

		if best == nil || q.AmountOut.Cmp(best.AmountOut) > 0 {
			best, bestFee = q, fee
		}
	}

	s.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if best == nil {
		s.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("source", src.Name)))
		span.SetStatus(codes.Error, "no valid quote")
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, apperror.New(apperror.CodePoolNotFound,
			apperror.WithContext("no pool found for token pair"))
	}

	leg := &domain.QuoteLeg{
		Source:      src.Name,
		Model:       src.Model,
		Kind:        domain.KindDelegated,
		AmountIn:    amountIn,
		AmountOut:   asset.NewAmount(tokenOut, best.AmountOut),
		GasEstimate: best.GasEstimate.Uint64(),
		FeeTier:     bestFee,
		Route: []domain.Hop{{
			Venue:    src.Name,
			TokenIn:  tokenIn.Address(),
			TokenOut: tokenOut.Address(),
			Fee:      bestFee,
		}},
	}
	if pool, ok := ts.Pool(bestFee); ok {
		spot := pool.SpotPrice(tokenIn, tokenOut, time.Now())
		leg.SpotPrice = &spot
		leg.Route[0].Pool = pool.Address.Hex()
	}

	span.SetAttributes(
		attribute.String("amount_out", best.AmountOut.String()),
		attribute.Int64("fee_tier", bestFee),
		attribute.Int64("gas_estimate", best.GasEstimate.Int64()),
	)
	span.SetStatus(codes.Ok, "quote received")

	s.logger.Debug(ctx, "concentrated quote",
		"source", src.Name,
		"amount_in", amountIn.Raw().String(),
		"amount_out", best.AmountOut.String(),
		"fee_tier", bestFee,
	)

	return leg, nil
}

func (s *Strategy) quoteTier(ctx context.Context, src domain.LiquiditySource, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, fee int64) (*QuoteResult, error) {
	outputs, err := s.caller.Call(ctx, src.Quoter, QuoterV2ABI, "quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           tokenIn.Address(),
		TokenOut:          tokenOut.Address(),
		AmountIn:          amountIn,
		Fee:               big.NewInt(fee),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, err
	}
	if len(outputs) < 4 {
		return nil, apperror.New(apperror.CodePricingError,
			apperror.WithContext(fmt.Sprintf("unexpected output length: %d", len(outputs))))
	}

	return &QuoteResult{
		AmountOut:               outputs[0].(*big.Int),
		SqrtPriceX96After:       outputs[1].(*big.Int),
		InitializedTicksCrossed: outputs[2].(uint32),
		GasEstimate:             outputs[3].(*big.Int),
	}, nil
}
