package app

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/logger"
)

const (
	tracerName = "quote"
	meterName  = "quote"

	defaultSourceTimeout = 3 * time.Second
)

// orchestratorMetrics holds OTEL metric instruments.
type orchestratorMetrics struct {
	quotesTotal    metric.Int64Counter
	sourceLatency  metric.Float64Histogram
	sourceFailures metric.Int64Counter
}

// Orchestrator fans a request out to every candidate venue, keeps the best
// answer and falls back to the simulation table when nothing answers.
type Orchestrator struct {
	venues        []Venue
	table         *SimulationTable
	gas           GasPricer
	sourceTimeout time.Duration
	strict        bool
	now           func() time.Time

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *orchestratorMetrics
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Venues     []Venue
	Simulation *SimulationTable
	// GasPricer is optional; without it quotes carry no GasCost.
	GasPricer     GasPricer
	SourceTimeout time.Duration
	// Strict returns NO_LIVE_SOURCE instead of a simulated quote.
	Strict bool
	Logger logger.LoggerInterface
}

// NewOrchestrator creates an Orchestrator. Venues are ordered by priority;
// equal priorities keep configuration order.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	venues := slices.Clone(opts.Venues)
	slices.SortStableFunc(venues, func(a, b Venue) int {
		return cmp.Compare(a.Source.Priority, b.Source.Priority)
	})

	timeout := opts.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	o := &Orchestrator{
		venues:        venues,
		table:         opts.Simulation,
		gas:           opts.GasPricer,
		sourceTimeout: timeout,
		strict:        opts.Strict,
		now:           time.Now,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}

	if err := o.initMetrics(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &orchestratorMetrics{}

	o.metrics.quotesTotal, err = meter.Int64Counter(
		"quote_requests_total",
		metric.WithDescription("Quotes served by provenance"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	o.metrics.sourceLatency, err = meter.Float64Histogram(
		"quote_source_latency_ms",
		metric.WithDescription("Per-source quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	o.metrics.sourceFailures, err = meter.Int64Counter(
		"quote_source_failures_total",
		metric.WithDescription("Per-source failures by error code"),
		metric.WithUnit("{failure}"),
	)
	return err
}

// Request is a resolved quote request.
type Request struct {
	ChainID     uint64
	Pair        domain.Pair
	AmountIn    asset.Amount
	SlippageBps int64
	Strict      bool
	// Sources restricts the fan-out to these names when non-empty.
	Sources []string
}

// ServesChain reports whether any venue or simulation entry covers chainID.
func (o *Orchestrator) ServesChain(chainID uint64) bool {
	for _, v := range o.venues {
		if v.Source.SupportsChain(chainID) {
			return true
		}
	}
	return o.table.ServesChain(chainID)
}

// Venue returns the venue configured under name.
func (o *Orchestrator) Venue(name string) (Venue, bool) {
	for _, v := range o.venues {
		if v.Source.Name == name {
			return v, true
		}
	}
	return Venue{}, false
}

// Venues returns the configured venues in priority order.
func (o *Orchestrator) Venues() []Venue {
	return slices.Clone(o.venues)
}

type sourceResult struct {
	leg     *domain.QuoteLeg
	outcome domain.SourceOutcome
}

// Quote prices req across all candidates. Source failures never surface as
// errors; the only errors are UNSUPPORTED_CHAIN, INVALID_SLIPPAGE and, in
// strict mode, NO_LIVE_SOURCE.
func (o *Orchestrator) Quote(ctx context.Context, req Request) (*domain.Quote, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.quote",
		trace.WithAttributes(
			attribute.Int64("chain_id", int64(req.ChainID)),
			attribute.String("pair", req.Pair.String()),
			attribute.String("amount_in", req.AmountIn.Raw().String()),
		),
	)
	defer span.End()

	if err := domain.ValidateSlippage(req.SlippageBps); err != nil {
		return nil, err
	}
	if !o.ServesChain(req.ChainID) {
		err := apperror.New(apperror.CodeUnsupportedChain)
		span.RecordError(err)
		return nil, err
	}

	candidates := o.candidates(req)
	results := make([]sourceResult, len(candidates))

	// No shared cancellation: one slow or failing source never cancels its siblings.
	var g errgroup.Group
	for i, v := range candidates {
		g.Go(func() error {
			results[i] = o.dispatch(ctx, v, req)
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make([]domain.SourceOutcome, len(results))
	var best *domain.QuoteLeg
	var succeeded int
	for i, r := range results {
		outcomes[i] = r.outcome
		if r.leg == nil {
			continue
		}
		succeeded++
		if best == nil || better(*r.leg, *best) {
			best = r.leg
		}
	}

	outcome := dispatchOutcome(len(candidates), succeeded)
	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("succeeded", succeeded),
		attribute.String("outcome", string(outcome)),
	)

	params := domain.QuoteParams{
		ChainID:     req.ChainID,
		SlippageBps: req.SlippageBps,
		Outcome:     outcome,
		Sources:     outcomes,
		Now:         o.now(),
	}

	var leg domain.QuoteLeg
	if best != nil {
		leg = *best
		params.Provenance = domain.ProvenanceLive
		params.PriceImpact = leg.PriceImpact()
	} else {
		if o.strict || req.Strict {
			err := apperror.New(apperror.CodeNoLiveSource,
				apperror.WithContext(req.Pair.String()+": "+failureSummary(outcomes)))
			span.RecordError(err)
			span.SetStatus(codes.Error, "no live source")
			return nil, err
		}

		leg, params.PriceImpact = o.table.Lookup(singleSource(req.Sources), req.Pair, req.AmountIn)
		params.Provenance = domain.ProvenanceSimulated

		o.logger.Warn(ctx, "no live source answered, serving simulated quote",
			"pair", req.Pair.String(),
			"candidates", len(candidates),
			"failures", failureSummary(outcomes),
		)
	}

	if o.gas != nil && leg.GasEstimate > 0 {
		if cost, err := o.gas.GasCost(ctx, leg.GasEstimate); err == nil {
			params.GasCost = &cost
		} else {
			o.logger.Debug(ctx, "gas cost unavailable", "error", err)
		}
	}

	q, err := domain.NewQuote(leg, params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	o.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provenance", string(q.Provenance)),
		attribute.String("outcome", string(outcome)),
	))
	span.SetAttributes(
		attribute.String("provenance", string(q.Provenance)),
		attribute.String("source", q.Source),
		attribute.String("amount_out", q.AmountOut.Raw().String()),
	)
	span.SetStatus(codes.Ok, "quoted")

	o.logger.Debug(ctx, "quote resolved",
		"quote_id", q.ID.String(),
		"pair", req.Pair.String(),
		"source", q.Source,
		"provenance", q.Provenance,
		"amount_out", q.AmountOut.Raw().String(),
	)

	return q, nil
}

func (o *Orchestrator) candidates(req Request) []Venue {
	var out []Venue
	for _, v := range o.venues {
		if !v.Source.SupportsChain(req.ChainID) || !v.Source.Serves(req.Pair) {
			continue
		}
		if len(req.Sources) > 0 && !slices.Contains(req.Sources, v.Source.Name) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// dispatch runs one venue under its own deadline. The venue call runs in its
// own goroutine so a strategy that ignores ctx still cannot hold the request.
func (o *Orchestrator) dispatch(ctx context.Context, v Venue, req Request) sourceResult {
	ctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "orchestrator.source",
		trace.WithAttributes(
			attribute.String("source", v.Source.Name),
			attribute.String("model", string(v.Source.Model)),
		),
	)
	defer span.End()

	start := time.Now()
	done := make(chan sourceResult, 1)

	go func() {
		leg, err := o.price(ctx, v, req)
		res := sourceResult{leg: leg, outcome: domain.SourceOutcome{Source: v.Source.Name}}
		if err != nil {
			res.outcome.Error = err.Error()
			res.outcome.Code = causeCode(err)
		}
		done <- res
	}()

	var res sourceResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = sourceResult{outcome: domain.SourceOutcome{Source: v.Source.Name}}
		res.outcome.Error = apperror.New(apperror.CodeTimeout, apperror.WithCause(ctx.Err())).Error()
		res.outcome.Code = apperror.CodeTimeout
	}

	res.outcome.Latency = time.Since(start)
	o.metrics.sourceLatency.Record(ctx, float64(res.outcome.Latency.Milliseconds()),
		metric.WithAttributes(attribute.String("source", v.Source.Name)))

	if res.leg != nil {
		res.outcome.Status = domain.SourceSucceeded
		res.outcome.AmountOut = res.leg.AmountOut.Raw()
		span.SetStatus(codes.Ok, "priced")
		return res
	}

	res.outcome.Status = domain.SourceUnavailable
	o.metrics.sourceFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", v.Source.Name),
		attribute.String("code", string(res.outcome.Code)),
	))
	span.SetStatus(codes.Error, res.outcome.Error)

	o.logger.Warn(ctx, "source unavailable",
		"source", v.Source.Name,
		"code", res.outcome.Code,
		"error", res.outcome.Error,
	)
	return res
}

// price reads venue state and runs the strategy. Any failure is reported as
// SOURCE_UNAVAILABLE carrying the underlying code.
func (o *Orchestrator) price(ctx context.Context, v Venue, req Request) (*domain.QuoteLeg, error) {
	var state domain.PoolState
	if v.Reader != nil && req.AmountIn.IsPositive() {
		s, err := v.Reader.ReadPoolState(ctx, v.Source, req.Pair)
		if err != nil {
			return nil, unavailable(ctx, v.Source.Name, err)
		}
		state = s
	}

	leg, err := v.Strategy.Quote(ctx, v.Source, state, req.AmountIn, req.Pair.Out)
	if err != nil {
		return nil, unavailable(ctx, v.Source.Name, err)
	}
	if leg == nil || !leg.AmountOut.Asset().Equals(req.Pair.Out) {
		return nil, apperror.New(apperror.CodeSourceUnavailable,
			apperror.WithContext(v.Source.Name),
			apperror.WithCause(apperror.New(apperror.CodePricingError, apperror.WithContext("leg in wrong asset"))))
	}
	return leg, nil
}

func unavailable(ctx context.Context, source string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if !apperror.HasCode(err, apperror.CodeTimeout) {
			err = apperror.New(apperror.CodeTimeout, apperror.WithCause(err))
		}
	}
	return apperror.New(apperror.CodeSourceUnavailable, apperror.WithContext(source), apperror.WithCause(err))
}

// better orders legs by amountOut, then lower gas. Equal legs keep the
// earlier (higher priority) one because iteration is in priority order.
func better(a, b domain.QuoteLeg) bool {
	if c := a.AmountOut.Raw().Cmp(b.AmountOut.Raw()); c != 0 {
		return c > 0
	}
	return a.GasEstimate < b.GasEstimate
}

func dispatchOutcome(candidates, succeeded int) domain.DispatchOutcome {
	switch {
	case candidates == 0:
		return domain.DispatchNoCandidates
	case succeeded == candidates:
		return domain.DispatchAllSucceeded
	case succeeded == 0:
		return domain.DispatchAllFailed
	default:
		return domain.DispatchPartialFailure
	}
}

func singleSource(sources []string) string {
	if len(sources) == 1 {
		return sources[0]
	}
	return ""
}

func failureSummary(outcomes []domain.SourceOutcome) string {
	var parts []string
	for _, oc := range outcomes {
		if oc.Status == domain.SourceUnavailable {
			parts = append(parts, oc.Source+"="+string(oc.Code))
		}
	}
	if len(parts) == 0 {
		return "no candidates"
	}
	return strings.Join(parts, ",")
}

// causeCode reports the code beneath the SOURCE_UNAVAILABLE wrapper.
func causeCode(err error) apperror.Code {
	code := apperror.GetCode(err)
	if code != apperror.CodeSourceUnavailable {
		return code
	}
	if inner := apperror.GetCode(errors.Unwrap(err)); inner != apperror.CodeUnknownError {
		return inner
	}
	return code
}
