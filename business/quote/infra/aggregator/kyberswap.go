package aggregator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/httpclient"
)

// KyberSwapChains is the router's chain allow-list.
var KyberSwapChains = []uint64{1, 56, 137, 42161, 10, 43114, 250, 25, 1313161554, 1101, 8453, 59144, 324}

var _ app.AggregatorClient = (*KyberSwap)(nil)

// KyberSwap queries the KyberSwap route/encode endpoint.
type KyberSwap struct {
	*base
}

// NewKyberSwap creates a KyberSwap client.
func NewKyberSwap(cfg config.AggregatorConfig, opts ...httpclient.ClientOption) (*KyberSwap, error) {
	b, err := newBase(config.AggregatorKyberSwap, cfg, KyberSwapChains, opts...)
	if err != nil {
		return nil, err
	}
	return &KyberSwap{base: b}, nil
}

type kyberSwap struct {
	Pool       string `json:"pool"`
	TokenIn    string `json:"tokenIn"`
	TokenOut   string `json:"tokenOut"`
	Exchange   string `json:"exchange"`
	PoolType   string `json:"poolType"`
	SwapAmount string `json:"swapAmount"`
}

type kyberResponse struct {
	InputAmount  string              `json:"inputAmount"`
	OutputAmount string              `json:"outputAmount"`
	TotalGas     uint64              `json:"totalGas"`
	AmountInUSD  decimal.NullDecimal `json:"amountInUsd"`
	AmountOutUSD decimal.NullDecimal `json:"amountOutUsd"`
	RouteSummary *struct {
		Exchanges []string `json:"exchanges"`
		Hops      int      `json:"hops"`
	} `json:"routeSummary"`
	Swaps [][]kyberSwap `json:"swaps"`
}

func kyberChainPath(chainID uint64) string {
	if chainID == 1 {
		return "ethereum"
	}
	return fmt.Sprintf("chain-%d", chainID)
}

func (k *KyberSwap) FetchQuote(ctx context.Context, req domain.AggregatorRequest) (*domain.AggregatorResponse, error) {
	return k.fetch(ctx, req, func(ctx context.Context) (*domain.AggregatorResponse, error) {
		var body kyberResponse
		r := k.request().
			SetQueryParams(map[string]string{
				"tokenIn":           tokenParam(req.TokenIn),
				"tokenOut":          tokenParam(req.TokenOut),
				"amountIn":          req.AmountIn.Raw().String(),
				"to":                req.Recipient.Hex(),
				"saveGas":           "0",
				"gasInclude":        "1",
				"slippageTolerance": strconv.FormatInt(req.SlippageBps, 10),
			}).
			SetResult(&body)

		if err := k.get(ctx, r, kyberChainPath(req.ChainID)+"/route/encode"); err != nil {
			return nil, err
		}

		out, err := parseRaw(k.name, "outputAmount", body.OutputAmount)
		if err != nil {
			return nil, err
		}

		resp := &domain.AggregatorResponse{
			AmountOut:    out,
			GasEstimate:  body.TotalGas,
			AmountInUSD:  body.AmountInUSD,
			AmountOutUSD: body.AmountOutUSD,
		}
		for _, seq := range body.Swaps {
			for _, s := range seq {
				resp.Route = append(resp.Route, domain.Hop{
					Venue:    s.Exchange,
					Pool:     s.Pool,
					TokenIn:  common.HexToAddress(s.TokenIn),
					TokenOut: common.HexToAddress(s.TokenOut),
				})
			}
		}
		if body.RouteSummary != nil {
			resp.Composition = evenSplit(body.RouteSummary.Exchanges)
		}
		return resp, nil
	})
}
