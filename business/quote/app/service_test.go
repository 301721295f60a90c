package app_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
)

type fakeMetadata struct {
	mu    sync.Mutex
	calls int
	meta  chain.TokenMetadata
	err   error
}

func (f *fakeMetadata) TokenMetadata(_ context.Context, token common.Address) (chain.TokenMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return chain.TokenMetadata{}, f.err
	}
	m := f.meta
	m.Address = token
	return m, nil
}

type fakeJournal struct {
	mu     sync.Mutex
	quotes []*domain.Quote
	err    error
}

func (f *fakeJournal) Record(_ context.Context, q *domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, q)
	return f.err
}

type serviceDeps struct {
	venues   []app.Venue
	metadata app.TokenMetadataReader
	journal  app.Journal
}

func newService(t *testing.T, deps serviceDeps) *app.QuoteService {
	t.Helper()
	if deps.venues == nil {
		deps.venues = []app.Venue{{Source: source("router", 1), Strategy: fakeStrategy{out: usdc(2000), gas: 150_000}}}
	}
	orch := newOrchestrator(t, app.OrchestratorOptions{Venues: deps.venues})

	opts := app.ServiceOptions{
		Orchestrator:       orch,
		Registry:           asset.DefaultRegistry(),
		DefaultSlippageBps: 50,
		DefaultDeadline:    10 * time.Minute,
		Metadata:           deps.metadata,
		Journal:            deps.journal,
	}
	svc := app.NewQuoteService(opts)
	t.Cleanup(svc.Close)
	return svc
}

func ptr[T any](v T) *T { return &v }

func TestQuoteService_GetQuote(t *testing.T) {
	journal := &fakeJournal{}
	svc := newService(t, serviceDeps{journal: journal})

	q, err := svc.GetQuote(context.Background(), app.QuoteRequest{
		TokenIn:  "weth",
		TokenOut: asset.AddrUSDCEthereum.Hex(),
		AmountIn: "1",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(asset.ChainIDEthereum), q.ChainID)
	assert.Equal(t, asset.WETH, q.TokenIn)
	assert.Equal(t, asset.USDC, q.TokenOut)
	assert.Equal(t, int64(50), q.SlippageBps)
	assert.Equal(t, "1990000000", q.MinAmountOut.Raw().String())
	require.Len(t, journal.quotes, 1)
	assert.Equal(t, q.ID, journal.quotes[0].ID)
}

func TestQuoteService_JournalFailureIsNotFatal(t *testing.T) {
	svc := newService(t, serviceDeps{journal: &fakeJournal{err: apperror.New(apperror.CodeJournalWriteFailed)}})

	_, err := svc.GetQuote(context.Background(), app.QuoteRequest{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1"})
	assert.NoError(t, err)
}

func TestQuoteService_InputErrors(t *testing.T) {
	svc := newService(t, serviceDeps{})

	tests := []struct {
		name string
		req  app.QuoteRequest
		code apperror.Code
	}{
		{"unknown symbol", app.QuoteRequest{TokenIn: "WETH", TokenOut: "NOPE", AmountIn: "1"}, apperror.CodeUnknownToken},
		{"unknown address", app.QuoteRequest{TokenIn: "WETH", TokenOut: "0x000000000000000000000000000000000000dEaD", AmountIn: "1"}, apperror.CodeUnknownToken},
		{"same token", app.QuoteRequest{TokenIn: "USDC", TokenOut: "usdc", AmountIn: "1"}, apperror.CodeInvalidInput},
		{"negative amount", app.QuoteRequest{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "-1"}, apperror.CodeInvalidAmount},
		{"too precise", app.QuoteRequest{TokenIn: "USDC", TokenOut: "WETH", AmountIn: "1.0000001"}, apperror.CodeInvalidAmount},
		{"slippage", app.QuoteRequest{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1", SlippageBps: ptr(int64(-1))}, apperror.CodeInvalidSlippage},
		{"chain", app.QuoteRequest{ChainID: 56, TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1"}, apperror.CodeUnsupportedChain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetQuote(context.Background(), tt.req)
			assert.Equal(t, tt.code, apperror.GetCode(err))
		})
	}
}

func TestQuoteService_DiscoversTokenOnce(t *testing.T) {
	meta := &fakeMetadata{meta: chain.TokenMetadata{Symbol: "PEPE", Decimals: 18}}
	svc := newService(t, serviceDeps{metadata: meta})
	addr := "0x6982508145454Ce325dDbE47a25d4ec3d2311933"

	for range 2 {
		q, err := svc.GetQuote(context.Background(), app.QuoteRequest{TokenIn: addr, TokenOut: "USDC", AmountIn: "1"})
		require.NoError(t, err)
		assert.Equal(t, "PEPE", q.TokenIn.Symbol())
	}
	assert.Equal(t, 1, meta.calls)
}

func TestQuoteService_DiscoveryFailures(t *testing.T) {
	addr := "0x6982508145454Ce325dDbE47a25d4ec3d2311933"

	t.Run("reader error", func(t *testing.T) {
		svc := newService(t, serviceDeps{metadata: &fakeMetadata{err: errors.New("execution reverted")}})
		_, err := svc.GetQuote(context.Background(), app.QuoteRequest{TokenIn: addr, TokenOut: "USDC", AmountIn: "1"})
		assert.Equal(t, apperror.CodeUnknownToken, apperror.GetCode(err))
	})

	t.Run("absurd decimals", func(t *testing.T) {
		svc := newService(t, serviceDeps{metadata: &fakeMetadata{meta: chain.TokenMetadata{Symbol: "X", Decimals: 77}}})
		_, err := svc.GetQuote(context.Background(), app.QuoteRequest{TokenIn: addr, TokenOut: "USDC", AmountIn: "1"})
		assert.Equal(t, apperror.CodeUnknownToken, apperror.GetCode(err))
	})
}

func TestQuoteService_BuildSwapPlan(t *testing.T) {
	svc := newService(t, serviceDeps{})
	q, err := svc.GetQuote(context.Background(), app.QuoteRequest{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1"})
	require.NoError(t, err)

	t.Run("defaults", func(t *testing.T) {
		before := time.Now()
		plan, err := svc.BuildSwapPlan(q, app.PlanRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(50), plan.SlippageBps)
		assert.Equal(t, "1990000000", plan.MinAmountOut.Raw().String())
		assert.False(t, plan.Deadline.Before(before.Add(10*time.Minute)))
	})

	t.Run("overrides", func(t *testing.T) {
		plan, err := svc.BuildSwapPlan(q, app.PlanRequest{SlippageBps: ptr(int64(300)), Deadline: time.Minute})
		require.NoError(t, err)
		assert.Equal(t, "1940000000", plan.MinAmountOut.Raw().String())
		assert.WithinDuration(t, time.Now().Add(time.Minute), plan.Deadline, 5*time.Second)
	})

	t.Run("full slippage", func(t *testing.T) {
		plan, err := svc.BuildSwapPlan(q, app.PlanRequest{SlippageBps: ptr(int64(10_000))})
		require.NoError(t, err)
		assert.True(t, plan.MinAmountOut.IsZero())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.BuildSwapPlan(nil, app.PlanRequest{})
		assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))

		_, err = svc.BuildSwapPlan(q, app.PlanRequest{Deadline: -time.Second})
		assert.Equal(t, apperror.CodeInvalidDeadline, apperror.GetCode(err))
	})
}

// assetStrategy prices every pair at a fixed rate per whole input token.
type assetStrategy struct {
	rates map[string]int64
}

func (assetStrategy) Model() domain.Model { return domain.ModelAggregator }
func (assetStrategy) Kind() domain.Kind   { return domain.KindDelegated }

func (s assetStrategy) Quote(_ context.Context, src domain.LiquiditySource, _ domain.PoolState,
	amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	rate, ok := s.rates[amountIn.Asset().Symbol()+"/"+tokenOut.Symbol()]
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedPair)
	}
	// out = in * rate * 10^(outDec - inDec)
	out := new(big.Int).Mul(amountIn.Raw(), big.NewInt(rate))
	out.Mul(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenOut.Decimals())), nil))
	out.Quo(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(amountIn.Asset().Decimals())), nil))
	return &domain.QuoteLeg{Source: src.Name, AmountIn: amountIn, AmountOut: asset.NewAmount(tokenOut, out)}, nil
}

func TestQuoteService_CompareRoutes(t *testing.T) {
	svc := newService(t, serviceDeps{venues: []app.Venue{{
		Source: source("router", 1),
		Strategy: assetStrategy{rates: map[string]int64{
			"WETH/USDC": 2000,
			"USDC/DAI":  1,
			"WETH/DAI":  1990,
		}},
	}}})

	c, err := svc.CompareRoutes(context.Background(), app.QuoteRequest{TokenIn: "WETH", TokenOut: "DAI", AmountIn: "1"}, "USDC")
	require.NoError(t, err)

	assert.Equal(t, asset.USDC, c.Via)
	assert.Equal(t, c.FirstHop.AmountOut.Raw(), c.SecondHop.AmountIn.Raw())
	assert.Equal(t, domain.RouteIndirect, c.Result.Better)
	assert.Equal(t, int64(50), c.Result.DiffBps)

	_, err = svc.CompareRoutes(context.Background(), app.QuoteRequest{TokenIn: "WETH", TokenOut: "DAI", AmountIn: "1"}, "DAI")
	assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))
}

func TestQuoteService_InspectSource(t *testing.T) {
	svc := newService(t, serviceDeps{})

	_, err := svc.InspectSource(context.Background(), "nope", 0, "WETH", "USDC")
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(err))

	_, err = svc.InspectSource(context.Background(), "router", 0, "WETH", "USDC")
	assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))
}
