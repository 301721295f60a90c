package aggregator

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/httpclient"
)

// ZeroXChains is the router's chain allow-list.
var ZeroXChains = []uint64{1, 56, 137, 42161, 10, 43114, 42220, 250}

var _ app.AggregatorClient = (*ZeroX)(nil)

// ZeroX queries the 0x swap/v1/quote endpoint.
type ZeroX struct {
	*base
}

// NewZeroX creates a 0x client. The API key travels in the 0x-api-key header.
func NewZeroX(cfg config.AggregatorConfig, opts ...httpclient.ClientOption) (*ZeroX, error) {
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithHeaders(map[string]string{"0x-api-key": cfg.APIKey}))
	}
	b, err := newBase(config.AggregatorZeroX, cfg, ZeroXChains, opts...)
	if err != nil {
		return nil, err
	}
	return &ZeroX{base: b}, nil
}

type zeroXResponse struct {
	BuyAmount    string `json:"buyAmount"`
	EstimatedGas string `json:"estimatedGas"`
	Sources      []struct {
		Name       string          `json:"name"`
		Proportion decimal.Decimal `json:"proportion"`
	} `json:"sources"`
}

func (z *ZeroX) FetchQuote(ctx context.Context, req domain.AggregatorRequest) (*domain.AggregatorResponse, error) {
	return z.fetch(ctx, req, func(ctx context.Context) (*domain.AggregatorResponse, error) {
		var body zeroXResponse
		r := z.request().
			SetQueryParams(map[string]string{
				"sellToken":          tokenParam(req.TokenIn),
				"buyToken":           tokenParam(req.TokenOut),
				"sellAmount":         req.AmountIn.Raw().String(),
				"slippagePercentage": decimal.New(req.SlippageBps, -4).String(),
				"skipValidation":     "true",
			}).
			SetResult(&body)

		if err := z.get(ctx, r, "swap/v1/quote"); err != nil {
			return nil, err
		}

		out, err := parseRaw(z.name, "buyAmount", body.BuyAmount)
		if err != nil {
			return nil, err
		}

		resp := &domain.AggregatorResponse{AmountOut: out}
		if body.EstimatedGas != "" {
			if gas, err := strconv.ParseUint(body.EstimatedGas, 10, 64); err == nil {
				resp.GasEstimate = gas
			}
		}
		for _, s := range body.Sources {
			if !s.Proportion.IsPositive() {
				continue
			}
			resp.Composition = append(resp.Composition, domain.RouteSplit{Venue: s.Name, Proportion: s.Proportion})
			resp.Route = append(resp.Route, domain.Hop{
				Venue:    s.Name,
				TokenIn:  req.TokenIn.Address(),
				TokenOut: req.TokenOut.Address(),
			})
		}
		return resp, nil
	})
}
