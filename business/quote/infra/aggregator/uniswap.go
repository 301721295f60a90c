package aggregator

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/httpclient"
)

// UniswapChains is the routing API's chain allow-list.
var UniswapChains = []uint64{1, 10, 56, 137, 8453, 42161, 43114}

var _ app.AggregatorClient = (*Uniswap)(nil)

// Uniswap queries the Uniswap routing API.
type Uniswap struct {
	*base
}

// NewUniswap creates a routing API client.
func NewUniswap(cfg config.AggregatorConfig, opts ...httpclient.ClientOption) (*Uniswap, error) {
	b, err := newBase(config.AggregatorUniswap, cfg, UniswapChains, opts...)
	if err != nil {
		return nil, err
	}
	return &Uniswap{base: b}, nil
}

type uniswapToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

type uniswapResponse struct {
	Quote          string `json:"quote"`
	GasUseEstimate string `json:"gasUseEstimate"`
	RoutingInfo    []struct {
		Protocol string          `json:"protocol"`
		Portion  decimal.Decimal `json:"portion"`
		Route    []struct {
			TokenIn  uniswapToken    `json:"tokenIn"`
			TokenOut uniswapToken    `json:"tokenOut"`
			Fee      decimal.Decimal `json:"fee"`
		} `json:"route"`
	} `json:"routingInfo"`
}

func (u *Uniswap) FetchQuote(ctx context.Context, req domain.AggregatorRequest) (*domain.AggregatorResponse, error) {
	return u.fetch(ctx, req, func(ctx context.Context) (*domain.AggregatorResponse, error) {
		chainID := strconv.FormatUint(req.ChainID, 10)

		var body uniswapResponse
		r := u.request().
			SetQueryParams(map[string]string{
				"protocols":       "v2,v3,mixed",
				"tokenInAddress":  req.TokenIn.Address().Hex(),
				"tokenInChainId":  chainID,
				"tokenOutAddress": req.TokenOut.Address().Hex(),
				"tokenOutChainId": chainID,
				"amount":          req.AmountIn.Raw().String(),
				"type":            "exactIn",
			}).
			SetResult(&body)

		if err := u.get(ctx, r, "v1/quote"); err != nil {
			return nil, err
		}

		out, err := parseRaw(u.name, "quote", body.Quote)
		if err != nil {
			return nil, err
		}

		resp := &domain.AggregatorResponse{AmountOut: out}
		if gas, err := strconv.ParseUint(body.GasUseEstimate, 10, 64); err == nil {
			resp.GasEstimate = gas
		}
		for _, ri := range body.RoutingInfo {
			resp.Composition = append(resp.Composition, domain.RouteSplit{Venue: ri.Protocol, Proportion: ri.Portion})
			for _, h := range ri.Route {
				resp.Route = append(resp.Route, domain.Hop{
					Venue:    ri.Protocol,
					TokenIn:  common.HexToAddress(h.TokenIn.Address),
					TokenOut: common.HexToAddress(h.TokenOut.Address),
					Fee:      h.Fee.IntPart(),
				})
			}
		}
		return resp, nil
	})
}
