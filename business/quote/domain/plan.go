package domain

import (
	"time"

	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
)

// SwapPlan is what an execution collaborator needs to submit a swap.
// Built on demand from a quote; never persisted.
type SwapPlan struct {
	Quote        *Quote
	SlippageBps  int64
	Deadline     time.Time
	MinAmountOut asset.Amount
}

// NewSwapPlan derives the slippage bound and absolute deadline for q.
func NewSwapPlan(q *Quote, slippageBps int64, deadline time.Duration, now time.Time) (*SwapPlan, error) {
	if q == nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("nil quote"))
	}
	if deadline <= 0 {
		return nil, apperror.New(apperror.CodeInvalidDeadline,
			apperror.WithContext("deadline must be positive"))
	}

	minOut, err := MinAmountOut(q.AmountOut, slippageBps)
	if err != nil {
		return nil, err
	}

	return &SwapPlan{
		Quote:        q,
		SlippageBps:  slippageBps,
		Deadline:     now.Add(deadline),
		MinAmountOut: minOut,
	}, nil
}

// Expired reports whether the plan's deadline has passed.
func (p *SwapPlan) Expired(now time.Time) bool {
	return !now.Before(p.Deadline)
}
