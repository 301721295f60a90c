package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/cache"
	"github.com/fd1az/quote-engine/internal/logger"
)

const journalTimeout = 2 * time.Second

// QuoteRequest is a caller's quote request. Tokens are symbols or addresses,
// AmountIn is a human decimal string.
type QuoteRequest struct {
	ChainID  uint64
	TokenIn  string
	TokenOut string
	AmountIn string
	// SlippageBps falls back to the configured default when nil.
	SlippageBps *int64
	Strict      bool
	Sources     []string
}

// PlanRequest tunes BuildSwapPlan. Zero values take the quote's slippage and
// the configured deadline.
type PlanRequest struct {
	SlippageBps *int64
	Deadline    time.Duration
}

// Comparison is a direct quote against a two-hop route through Via.
type Comparison struct {
	Via       *asset.Asset
	Direct    *domain.Quote
	FirstHop  *domain.Quote
	SecondHop *domain.Quote
	Result    domain.RouteComparison
}

// Inspection is a venue snapshot for a pair.
type Inspection struct {
	Source    domain.LiquiditySource
	Pair      domain.Pair
	State     domain.PoolState
	SpotPrice *asset.Price
}

// ServiceOptions configures a QuoteService.
type ServiceOptions struct {
	Orchestrator       *Orchestrator
	Registry           *asset.Registry
	DefaultChainID     uint64
	DefaultSlippageBps int64
	DefaultDeadline    time.Duration
	// Metadata discovers unconfigured tokens on DefaultChainID. Optional.
	Metadata TokenMetadataReader
	// Journal is optional.
	Journal Journal
	Logger  logger.LoggerInterface
}

// QuoteService is the entry point for quotes, swap plans and route comparison.
type QuoteService struct {
	orchestrator    *Orchestrator
	registry        *asset.Registry
	defaultChainID  uint64
	defaultSlippage int64
	defaultDeadline time.Duration
	metadata        TokenMetadataReader
	discovered      *cache.Cache[asset.AssetID, *asset.Asset]
	journal         Journal
	logger          logger.LoggerInterface
	now             func() time.Time
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(opts ServiceOptions) *QuoteService {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	deadline := opts.DefaultDeadline
	if deadline <= 0 {
		deadline = 20 * time.Minute
	}
	chainID := opts.DefaultChainID
	if chainID == 0 {
		chainID = asset.ChainIDEthereum
	}

	return &QuoteService{
		orchestrator:    opts.Orchestrator,
		registry:        opts.Registry,
		defaultChainID:  chainID,
		defaultSlippage: opts.DefaultSlippageBps,
		defaultDeadline: deadline,
		metadata:        opts.Metadata,
		discovered:      cache.New[asset.AssetID, *asset.Asset](0),
		journal:         opts.Journal,
		logger:          log,
		now:             time.Now,
	}
}

// Close releases the token discovery cache.
func (s *QuoteService) Close() {
	s.discovered.Close()
}

// GetQuote resolves and validates req, then prices it. Only caller input
// errors are returned; venue failures end in a simulated quote.
func (s *QuoteService) GetQuote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	ctx, span := s.orchestrator.tracer.Start(ctx, "quote.get_quote",
		trace.WithAttributes(
			attribute.String("token_in", req.TokenIn),
			attribute.String("token_out", req.TokenOut),
			attribute.String("amount_in", req.AmountIn),
		),
	)
	defer span.End()

	r, err := s.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		return nil, err
	}

	q, err := s.orchestrator.Quote(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		return nil, err
	}

	s.record(ctx, q)
	span.SetAttributes(attribute.String("quote_id", q.ID.String()))
	return q, nil
}

// BuildSwapPlan derives the minimum output and deadline for q.
func (s *QuoteService) BuildSwapPlan(q *domain.Quote, req PlanRequest) (*domain.SwapPlan, error) {
	if q == nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("quote is required"))
	}

	bps := q.SlippageBps
	if req.SlippageBps != nil {
		bps = *req.SlippageBps
	}
	deadline := req.Deadline
	if deadline == 0 {
		deadline = s.defaultDeadline
	}

	return domain.NewSwapPlan(q, bps, deadline, s.now())
}

// CompareRoutes quotes req directly and through via, feeding the first hop's
// output into the second.
func (s *QuoteService) CompareRoutes(ctx context.Context, req QuoteRequest, via string) (*Comparison, error) {
	ctx, span := s.orchestrator.tracer.Start(ctx, "quote.compare_routes",
		trace.WithAttributes(attribute.String("via", via)))
	defer span.End()

	r, err := s.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	mid, err := s.resolveToken(ctx, r.ChainID, via)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if mid.Equals(r.Pair.In) || mid.Equals(r.Pair.Out) {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("intermediate token must differ from both ends"))
	}

	direct, err := s.orchestrator.Quote(ctx, r)
	if err != nil {
		return nil, err
	}

	first := r
	first.Pair = domain.NewPair(r.Pair.In, mid)
	hop1, err := s.orchestrator.Quote(ctx, first)
	if err != nil {
		return nil, err
	}

	second := r
	second.Pair = domain.NewPair(mid, r.Pair.Out)
	second.AmountIn = hop1.AmountOut
	hop2, err := s.orchestrator.Quote(ctx, second)
	if err != nil {
		return nil, err
	}

	result, err := domain.CompareRoutes(direct.AmountOut, hop2.AmountOut)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("better", string(result.Better)),
		attribute.Int64("diff_bps", result.DiffBps),
	)

	return &Comparison{
		Via:       mid,
		Direct:    direct,
		FirstHop:  hop1,
		SecondHop: hop2,
		Result:    result,
	}, nil
}

// InspectSource reads the named venue's state for a pair.
func (s *QuoteService) InspectSource(ctx context.Context, source string, chainID uint64, tokenIn, tokenOut string) (*Inspection, error) {
	v, ok := s.orchestrator.Venue(source)
	if !ok {
		return nil, apperror.NotFound(apperror.CodeNotFound, "source "+source)
	}
	if v.Reader == nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(source+" has no on-chain state"))
	}
	if chainID == 0 {
		chainID = s.defaultChainID
	}

	in, err := s.resolveToken(ctx, chainID, tokenIn)
	if err != nil {
		return nil, err
	}
	out, err := s.resolveToken(ctx, chainID, tokenOut)
	if err != nil {
		return nil, err
	}

	pair := domain.NewPair(in, out)
	state, err := v.Reader.ReadPoolState(ctx, v.Source, pair)
	if err != nil {
		return nil, err
	}

	return &Inspection{
		Source:    v.Source,
		Pair:      pair,
		State:     state,
		SpotPrice: domain.SpotPrice(state, pair, s.now()),
	}, nil
}

// Defaults returns the configured slippage and deadline.
func (s *QuoteService) Defaults() (slippageBps int64, deadline time.Duration) {
	return s.defaultSlippage, s.defaultDeadline
}

func (s *QuoteService) resolve(ctx context.Context, req QuoteRequest) (Request, error) {
	chainID := req.ChainID
	if chainID == 0 {
		chainID = s.defaultChainID
	}
	if !s.orchestrator.ServesChain(chainID) {
		return Request{}, apperror.New(apperror.CodeUnsupportedChain)
	}

	in, err := s.resolveToken(ctx, chainID, req.TokenIn)
	if err != nil {
		return Request{}, err
	}
	out, err := s.resolveToken(ctx, chainID, req.TokenOut)
	if err != nil {
		return Request{}, err
	}
	if in.Equals(out) {
		return Request{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("token in and token out are the same"))
	}

	amountIn, err := asset.ParseUnits(in, req.AmountIn)
	if err != nil {
		return Request{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(req.AmountIn),
			apperror.WithCause(err))
	}

	slippage := s.defaultSlippage
	if req.SlippageBps != nil {
		slippage = *req.SlippageBps
	}
	if err := domain.ValidateSlippage(slippage); err != nil {
		return Request{}, err
	}

	return Request{
		ChainID:     chainID,
		Pair:        domain.NewPair(in, out),
		AmountIn:    amountIn,
		SlippageBps: slippage,
		Strict:      req.Strict,
		Sources:     req.Sources,
	}, nil
}

// resolveToken finds a configured token, or discovers an ERC-20 on the
// default chain once and remembers it for the process lifetime.
func (s *QuoteService) resolveToken(ctx context.Context, chainID uint64, symbolOrAddress string) (*asset.Asset, error) {
	if a, ok := s.registry.Resolve(chainID, symbolOrAddress); ok {
		return a, nil
	}

	unknown := apperror.NotFound(apperror.CodeUnknownToken, symbolOrAddress)
	if s.metadata == nil || chainID != s.defaultChainID || !common.IsHexAddress(symbolOrAddress) {
		return nil, unknown
	}

	addr := common.HexToAddress(symbolOrAddress)
	id := asset.NewTokenAssetID(chainID, addr)
	if a, ok := s.discovered.Get(ctx, id); ok {
		return a, nil
	}

	meta, err := s.metadata.TokenMetadata(ctx, addr)
	if err != nil {
		s.logger.Warn(ctx, "token discovery failed", "address", addr.Hex(), "error", err)
		return nil, unknown
	}
	if meta.Decimals > asset.MaxDecimals {
		return nil, apperror.New(apperror.CodeUnknownToken,
			apperror.WithContext(symbolOrAddress+": unsupported decimals"))
	}

	a, _ := s.registry.Add(asset.NewAssetWithName(id, meta.Symbol, meta.Symbol, meta.Decimals))
	s.discovered.Set(ctx, id, a, cache.NoExpiration)

	s.logger.Info(ctx, "discovered token",
		"address", addr.Hex(),
		"symbol", a.Symbol(),
		"decimals", a.Decimals(),
	)
	return a, nil
}

func (s *QuoteService) record(ctx context.Context, q *domain.Quote) {
	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := s.journal.Record(ctx, q); err != nil {
		s.logger.Warn(ctx, "quote journal write failed", "quote_id", q.ID.String(), "error", err)
	}
}
