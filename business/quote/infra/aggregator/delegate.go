package aggregator

import (
	"context"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
)

// DefaultSlippageBps is sent to routers that take a tolerance with the quote.
const DefaultSlippageBps = 50

var _ app.Strategy = (*Delegate)(nil)

// Delegate prices a source by asking the router named in its Aggregator field.
type Delegate struct {
	clients     map[string]app.AggregatorClient
	slippageBps int64
}

// NewDelegate creates a Delegate over clients, keyed by client name.
func NewDelegate(slippageBps int64, clients ...app.AggregatorClient) *Delegate {
	d := &Delegate{
		clients:     make(map[string]app.AggregatorClient, len(clients)),
		slippageBps: slippageBps,
	}
	for _, c := range clients {
		d.clients[c.Name()] = c
	}
	return d
}

// Client returns the named router client.
func (d *Delegate) Client(name string) (app.AggregatorClient, bool) {
	c, ok := d.clients[name]
	return c, ok
}

func (d *Delegate) Model() domain.Model { return domain.ModelAggregator }

func (d *Delegate) Kind() domain.Kind { return domain.KindDelegated }

func (d *Delegate) Quote(ctx context.Context, src domain.LiquiditySource, _ domain.PoolState, amountIn asset.Amount, tokenOut *asset.Asset) (*domain.QuoteLeg, error) {
	if amountIn.IsZero() {
		return domain.ZeroLeg(src, amountIn, tokenOut), nil
	}

	client, ok := d.clients[src.Aggregator]
	if !ok {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no router client "+src.Aggregator+" for "+src.Name))
	}

	chainID := amountIn.Asset().ChainID()
	if !client.SupportsChain(chainID) {
		return nil, apperror.New(apperror.CodeUnsupportedChain, apperror.WithContext(src.Name))
	}

	resp, err := client.FetchQuote(ctx, domain.AggregatorRequest{
		ChainID:     chainID,
		TokenIn:     amountIn.Asset(),
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		SlippageBps: d.slippageBps,
	})
	if err != nil {
		return nil, err
	}
	if resp.AmountOut == nil {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext(src.Name+": empty amount"))
	}

	return &domain.QuoteLeg{
		Source:       src.Name,
		Model:        domain.ModelAggregator,
		Kind:         domain.KindDelegated,
		AmountIn:     amountIn,
		AmountOut:    asset.NewAmount(tokenOut, resp.AmountOut),
		GasEstimate:  resp.GasEstimate,
		Route:        resp.Route,
		Composition:  resp.Composition,
		AmountInUSD:  resp.AmountInUSD,
		AmountOutUSD: resp.AmountOutUSD,
	}, nil
}
