package app_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/config"
)

func newTable(t *testing.T) *app.SimulationTable {
	t.Helper()
	table, err := app.NewSimulationTable(config.DefaultSimulation(), asset.DefaultRegistry(), asset.ChainIDEthereum)
	require.NoError(t, err)
	return table
}

func newOrchestrator(t *testing.T, opts app.OrchestratorOptions) *app.Orchestrator {
	t.Helper()
	if opts.Simulation == nil {
		opts.Simulation = newTable(t)
	}
	o, err := app.NewOrchestrator(opts)
	require.NoError(t, err)
	return o
}

func wethToUSDC() app.Request {
	return app.Request{
		ChainID:     asset.ChainIDEthereum,
		Pair:        domain.NewPair(asset.WETH, asset.USDC),
		AmountIn:    oneWETH(),
		SlippageBps: 50,
	}
}

func TestOrchestrator_PicksLargestOutput(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{Venues: []app.Venue{
		{Source: source("a", 1), Strategy: fakeStrategy{out: usdc(1990), gas: 100_000}},
		{Source: source("b", 2), Strategy: fakeStrategy{out: usdc(2000), gas: 300_000}},
	}})

	q, err := o.Quote(context.Background(), wethToUSDC())
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceLive, q.Provenance)
	assert.Equal(t, "b", q.Source)
	assert.Equal(t, usdc(2000).String(), q.AmountOut.Raw().String())
	assert.Equal(t, usdc(1990).String(), q.MinAmountOut.Raw().String())
	assert.Equal(t, domain.DispatchAllSucceeded, q.Outcome)
	require.Len(t, q.Sources, 2)
	for _, s := range q.Sources {
		assert.Equal(t, domain.SourceSucceeded, s.Status)
	}
}

func TestOrchestrator_TieBreak(t *testing.T) {
	tests := []struct {
		name   string
		venues []app.Venue
		want   string
	}{
		{
			name: "lower gas wins",
			venues: []app.Venue{
				{Source: source("a", 1), Strategy: fakeStrategy{out: usdc(2000), gas: 200_000}},
				{Source: source("b", 2), Strategy: fakeStrategy{out: usdc(2000), gas: 150_000}},
			},
			want: "b",
		},
		{
			name: "priority wins on full tie",
			venues: []app.Venue{
				{Source: source("late", 5), Strategy: fakeStrategy{out: usdc(2000), gas: 150_000}},
				{Source: source("early", 1), Strategy: fakeStrategy{out: usdc(2000), gas: 150_000}},
			},
			want: "early",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrchestrator(t, app.OrchestratorOptions{Venues: tt.venues})
			q, err := o.Quote(context.Background(), wethToUSDC())
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Source)
		})
	}
}

func TestOrchestrator_PartialFailure(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{Venues: []app.Venue{
		{Source: source("broken", 1), Strategy: fakeStrategy{err: apperror.New(apperror.CodeUnsupportedPair)}},
		{Source: source("ok", 2), Strategy: fakeStrategy{out: usdc(1999)}},
	}})

	q, err := o.Quote(context.Background(), wethToUSDC())
	require.NoError(t, err)

	assert.Equal(t, "ok", q.Source)
	assert.Equal(t, domain.DispatchPartialFailure, q.Outcome)
	assert.Equal(t, domain.SourceUnavailable, q.Sources[0].Status)
	assert.Equal(t, apperror.CodeUnsupportedPair, q.Sources[0].Code)
}

func TestOrchestrator_SlowSourceTimesOut(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{
		SourceTimeout: 50 * time.Millisecond,
		Venues: []app.Venue{
			{Source: source("slow", 1), Strategy: fakeStrategy{out: usdc(5000), delay: time.Second, ignoreCtx: true}},
			{Source: source("fast", 2), Strategy: fakeStrategy{out: usdc(1999)}},
		},
	})

	start := time.Now()
	q, err := o.Quote(context.Background(), wethToUSDC())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "fast", q.Source)
	assert.Equal(t, apperror.CodeTimeout, q.Sources[0].Code)
}

func TestOrchestrator_AllFailServesSimulation(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{Venues: []app.Venue{
		{Source: source("a", 1), Strategy: fakeStrategy{err: apperror.New(apperror.CodeConnectionFailed)}},
		{Source: source("b", 2), Strategy: fakeStrategy{err: apperror.New(apperror.CodeRateLimited)}},
	}})

	q, err := o.Quote(context.Background(), wethToUSDC())
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceSimulated, q.Provenance)
	assert.Equal(t, app.SimulatedSource, q.Source)
	assert.Equal(t, usdc(2000).String(), q.AmountOut.Raw().String())
	assert.Equal(t, domain.DispatchAllFailed, q.Outcome)
	assert.Equal(t, apperror.CodeRateLimited, q.Sources[1].Code)
}

func TestOrchestrator_Strict(t *testing.T) {
	venues := []app.Venue{{Source: source("a", 1), Strategy: fakeStrategy{err: apperror.New(apperror.CodeTimeout)}}}

	t.Run("per request", func(t *testing.T) {
		o := newOrchestrator(t, app.OrchestratorOptions{Venues: venues})
		req := wethToUSDC()
		req.Strict = true
		_, err := o.Quote(context.Background(), req)
		assert.True(t, apperror.HasCode(err, apperror.CodeNoLiveSource))
	})

	t.Run("configured", func(t *testing.T) {
		o := newOrchestrator(t, app.OrchestratorOptions{Venues: venues, Strict: true})
		_, err := o.Quote(context.Background(), wethToUSDC())
		assert.True(t, apperror.HasCode(err, apperror.CodeNoLiveSource))
	})
}

func TestOrchestrator_RequestErrors(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{Venues: []app.Venue{
		{Source: source("a", 1), Strategy: fakeStrategy{out: usdc(2000)}},
	}})

	req := wethToUSDC()
	req.ChainID = 137
	_, err := o.Quote(context.Background(), req)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedChain))

	req = wethToUSDC()
	req.SlippageBps = 10_001
	_, err = o.Quote(context.Background(), req)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidSlippage))
}

func TestOrchestrator_SourceFilter(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{Venues: []app.Venue{
		{Source: source("a", 1), Strategy: fakeStrategy{out: usdc(2100)}},
		{Source: source("b", 2), Strategy: fakeStrategy{out: usdc(1990)}},
	}})

	req := wethToUSDC()
	req.Sources = []string{"b"}
	q, err := o.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b", q.Source)
	assert.Len(t, q.Sources, 1)

	req.Sources = []string{"nope"}
	q, err = o.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchNoCandidates, q.Outcome)
	assert.Equal(t, domain.ProvenanceSimulated, q.Provenance)
}

func TestOrchestrator_GasCost(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{
		GasPricer: fakeGas{},
		Venues:    []app.Venue{{Source: source("a", 1), Strategy: fakeStrategy{out: usdc(2000), gas: 150_000}}},
	})

	q, err := o.Quote(context.Background(), wethToUSDC())
	require.NoError(t, err)
	require.NotNil(t, q.GasCost)
	assert.Equal(t, big.NewInt(1_500_000_000_000_000).String(), q.GasCost.Raw().String())
	assert.Equal(t, asset.ETH, q.GasCost.Asset())
}

func TestOrchestrator_ZeroInput(t *testing.T) {
	o := newOrchestrator(t, app.OrchestratorOptions{Venues: []app.Venue{
		{Source: source("a", 1), Strategy: fakeStrategy{out: big.NewInt(0)}},
	}})

	req := wethToUSDC()
	req.AmountIn = asset.Zero(asset.WETH)
	q, err := o.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, q.AmountOut.IsZero())
	assert.True(t, q.MinAmountOut.IsZero())
}
