package aggregator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/httpclient"
)

// OneInchChains is the router's chain allow-list.
var OneInchChains = []uint64{1, 56, 137, 10, 42161, 100, 43114, 250}

// OneInchProtocols restricts routing to venues the engine also prices directly.
const OneInchProtocols = "UNISWAP_V3,UNISWAP_V2,SUSHI,CURVE,BALANCER_V2"

var _ app.AggregatorClient = (*OneInch)(nil)

// OneInch queries the 1inch v5.0 quote endpoint.
type OneInch struct {
	*base
}

// NewOneInch creates a 1inch client. A configured API key is sent as a bearer token.
func NewOneInch(cfg config.AggregatorConfig, opts ...httpclient.ClientOption) (*OneInch, error) {
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithHeaders(map[string]string{"Authorization": "Bearer " + cfg.APIKey}))
	}
	b, err := newBase(config.AggregatorOneInch, cfg, OneInchChains, opts...)
	if err != nil {
		return nil, err
	}
	return &OneInch{base: b}, nil
}

type oneInchPart struct {
	Name             string          `json:"name"`
	Part             decimal.Decimal `json:"part"`
	FromTokenAddress string          `json:"fromTokenAddress"`
	ToTokenAddress   string          `json:"toTokenAddress"`
}

type oneInchResponse struct {
	ToAmount     string `json:"toAmount"`
	EstimatedGas uint64 `json:"estimatedGas"`
	// routes -> hops -> parts
	Protocols [][][]oneInchPart `json:"protocols"`
}

func (o *OneInch) FetchQuote(ctx context.Context, req domain.AggregatorRequest) (*domain.AggregatorResponse, error) {
	return o.fetch(ctx, req, func(ctx context.Context) (*domain.AggregatorResponse, error) {
		var body oneInchResponse
		r := o.request().
			SetQueryParams(map[string]string{
				"fromTokenAddress": tokenParam(req.TokenIn),
				"toTokenAddress":   tokenParam(req.TokenOut),
				"amount":           req.AmountIn.Raw().String(),
				"protocols":        OneInchProtocols,
			}).
			SetResult(&body)

		if err := o.get(ctx, r, fmt.Sprintf("v5.0/%d/quote", req.ChainID)); err != nil {
			return nil, err
		}

		out, err := parseRaw(o.name, "toAmount", body.ToAmount)
		if err != nil {
			return nil, err
		}

		resp := &domain.AggregatorResponse{AmountOut: out, GasEstimate: body.EstimatedGas}
		if len(body.Protocols) == 0 {
			return resp, nil
		}

		hundred := decimal.NewFromInt(100)
		for i, hop := range body.Protocols[0] {
			for _, p := range hop {
				if i == 0 {
					resp.Composition = append(resp.Composition, domain.RouteSplit{Venue: p.Name, Proportion: p.Part.Div(hundred)})
				}
				resp.Route = append(resp.Route, domain.Hop{
					Venue:    p.Name,
					TokenIn:  common.HexToAddress(p.FromTokenAddress),
					TokenOut: common.HexToAddress(p.ToTokenAddress),
				})
			}
		}
		return resp, nil
	})
}
