package aggregator_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/business/quote/infra/aggregator"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/config"
)

func oneWETH() asset.Amount {
	return asset.NewAmount(asset.WETH, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func request() domain.AggregatorRequest {
	return domain.AggregatorRequest{
		ChainID:     1,
		TokenIn:     asset.WETH,
		TokenOut:    asset.USDC,
		AmountIn:    oneWETH(),
		SlippageBps: 50,
	}
}

func serve(t *testing.T, hits *atomic.Int32, fn func(w http.ResponseWriter, r *http.Request)) config.AggregatorConfig {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fn(w, r)
	}))
	t.Cleanup(srv.Close)
	return config.AggregatorConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestKyberSwap_FetchQuote(t *testing.T) {
	cfg := serve(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ethereum/route/encode", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, asset.WETH.Address().Hex(), q.Get("tokenIn"))
		assert.Equal(t, "1000000000000000000", q.Get("amountIn"))
		assert.Equal(t, "50", q.Get("slippageTolerance"))

		writeJSON(w, map[string]any{
			"outputAmount": "1990000000",
			"totalGas":     180000,
			"amountInUsd":  2000.5,
			"amountOutUsd": "1990.1",
			"routeSummary": map[string]any{"exchanges": []string{"uniswap", "curve"}},
			"swaps": [][]map[string]any{{
				{"pool": "0xpool", "tokenIn": asset.WETH.Address().Hex(), "tokenOut": asset.USDC.Address().Hex(), "exchange": "uniswap"},
			}},
		})
	})

	client, err := aggregator.NewKyberSwap(cfg)
	require.NoError(t, err)

	resp, err := client.FetchQuote(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, int64(1_990_000_000), resp.AmountOut.Int64())
	assert.Equal(t, uint64(180000), resp.GasEstimate)
	require.True(t, resp.AmountInUSD.Valid)
	assert.Equal(t, "2000.5", resp.AmountInUSD.Decimal.String())
	assert.Equal(t, "1990.1", resp.AmountOutUSD.Decimal.String())
	require.Len(t, resp.Composition, 2)
	assert.True(t, resp.Composition[0].Proportion.Equal(decimal.RequireFromString("0.5")))
	require.Len(t, resp.Route, 1)
	assert.Equal(t, asset.USDC.Address(), resp.Route[0].TokenOut)
}

func TestKyberSwap_OtherChainPath(t *testing.T) {
	cfg := serve(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chain-137/route/encode", r.URL.Path)
		writeJSON(w, map[string]any{"outputAmount": "1"})
	})
	client, err := aggregator.NewKyberSwap(cfg)
	require.NoError(t, err)

	req := request()
	req.ChainID = 137
	_, err = client.FetchQuote(context.Background(), req)
	require.NoError(t, err)
}

func TestOneInch_FetchQuote(t *testing.T) {
	cfg := serve(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5.0/1/quote", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, aggregator.OneInchProtocols, r.URL.Query().Get("protocols"))

		weth, usdc := asset.WETH.Address().Hex(), asset.USDC.Address().Hex()
		writeJSON(w, map[string]any{
			"toAmount":     "1995000000",
			"estimatedGas": 210000,
			"protocols": [][][]map[string]any{{{
				{"name": "UNISWAP_V3", "part": 60, "fromTokenAddress": weth, "toTokenAddress": usdc},
				{"name": "CURVE", "part": 40, "fromTokenAddress": weth, "toTokenAddress": usdc},
			}}},
		})
	})

	client, err := aggregator.NewOneInch(cfg)
	require.NoError(t, err)

	resp, err := client.FetchQuote(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, int64(1_995_000_000), resp.AmountOut.Int64())
	assert.Equal(t, uint64(210000), resp.GasEstimate)
	require.Len(t, resp.Composition, 2)
	assert.Equal(t, "UNISWAP_V3", resp.Composition[0].Venue)
	assert.True(t, resp.Composition[0].Proportion.Equal(decimal.RequireFromString("0.6")))
	assert.False(t, resp.AmountInUSD.Valid)
}

func TestZeroX_FetchQuote(t *testing.T) {
	cfg := serve(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swap/v1/quote", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("0x-api-key"))
		assert.Equal(t, "0.005", r.URL.Query().Get("slippagePercentage"))

		writeJSON(w, map[string]any{
			"buyAmount":    "2000000000",
			"estimatedGas": "150000",
			"sources": []map[string]any{
				{"name": "Uniswap_V3", "proportion": "0.8"},
				{"name": "Sushiswap", "proportion": "0.2"},
				{"name": "Curve", "proportion": "0"},
			},
		})
	})

	client, err := aggregator.NewZeroX(cfg)
	require.NoError(t, err)

	resp, err := client.FetchQuote(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, int64(2_000_000_000), resp.AmountOut.Int64())
	assert.Equal(t, uint64(150000), resp.GasEstimate)
	require.Len(t, resp.Composition, 2, "zero-share sources are dropped")
	assert.Equal(t, "Sushiswap", resp.Composition[1].Venue)
}

func TestUniswap_FetchQuote(t *testing.T) {
	cfg := serve(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "exactIn", q.Get("type"))
		assert.Equal(t, "v2,v3,mixed", q.Get("protocols"))
		assert.Equal(t, "1", q.Get("tokenOutChainId"))

		writeJSON(w, map[string]any{
			"quote":          "1993000000",
			"gasUseEstimate": "120000",
			"routingInfo": []map[string]any{{
				"protocol": "v3",
				"portion":  0.7,
				"route": []map[string]any{{
					"tokenIn":  map[string]string{"address": asset.WETH.Address().Hex(), "symbol": "WETH"},
					"tokenOut": map[string]string{"address": asset.USDC.Address().Hex(), "symbol": "USDC"},
					"fee":      "500",
				}},
			}},
		})
	})

	client, err := aggregator.NewUniswap(cfg)
	require.NoError(t, err)

	resp, err := client.FetchQuote(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, int64(1_993_000_000), resp.AmountOut.Int64())
	assert.Equal(t, uint64(120000), resp.GasEstimate)
	require.Len(t, resp.Route, 1)
	assert.Equal(t, int64(500), resp.Route[0].Fee)
	assert.True(t, resp.Composition[0].Proportion.Equal(decimal.RequireFromString("0.7")))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperror.Code
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, apperror.CodeRateLimited},
		{"no route", http.StatusBadRequest, `{"message":"route not found"}`, apperror.CodeUnsupportedPair},
		{"not found", http.StatusNotFound, ``, apperror.CodeUnsupportedPair},
		{"server error", http.StatusBadGateway, `oops`, apperror.CodeHTTPError},
		{"bad body", http.StatusOK, `not json`, apperror.CodeHTTPError},
		{"bad amount", http.StatusOK, `{"outputAmount":"-3"}`, apperror.CodeHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := serve(t, nil, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client, err := aggregator.NewKyberSwap(cfg)
			require.NoError(t, err)

			_, err = client.FetchQuote(context.Background(), request())
			assert.True(t, apperror.HasCode(err, tt.want), "got %v", err)
		})
	}
}

func TestBreaker(t *testing.T) {
	t.Run("no route does not trip", func(t *testing.T) {
		var hits atomic.Int32
		cfg := serve(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		client, err := aggregator.NewZeroX(cfg)
		require.NoError(t, err)

		for range 7 {
			_, err = client.FetchQuote(context.Background(), request())
			assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedPair), "got %v", err)
		}
		assert.Equal(t, int32(7), hits.Load())
	})

	t.Run("server errors trip", func(t *testing.T) {
		var hits atomic.Int32
		cfg := serve(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		client, err := aggregator.NewZeroX(cfg)
		require.NoError(t, err)

		for range 5 {
			_, _ = client.FetchQuote(context.Background(), request())
		}
		_, err = client.FetchQuote(context.Background(), request())
		assert.True(t, apperror.HasCode(err, apperror.CodeCircuitOpen), "got %v", err)
		assert.Equal(t, int32(5), hits.Load())
	})
}

func TestDelegate_UnsupportedChainMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	cfg := serve(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"toAmount": "1"})
	})
	client, err := aggregator.NewOneInch(cfg)
	require.NoError(t, err)

	const sepolia = 11155111
	weth := asset.MustNewToken(sepolia, common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"), "WETH", "Wrapped Ether", 18)
	usdc := asset.MustNewToken(sepolia, common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"), "USDC", "USD Coin", 6)

	src := domain.LiquiditySource{Name: "1inch", Model: domain.ModelAggregator, Aggregator: config.AggregatorOneInch}
	_, err = aggregator.NewDelegate(50, client).Quote(context.Background(), src, nil,
		asset.NewAmountFromInt64(weth, 1_000_000), usdc)

	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedChain), "got %v", err)
	assert.Zero(t, hits.Load())
}

func TestDelegate_ZeroMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	cfg := serve(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"outputAmount": "1990000000"})
	})
	client, err := aggregator.NewKyberSwap(cfg)
	require.NoError(t, err)

	src := domain.LiquiditySource{Name: "kyberswap", Model: domain.ModelAggregator, Aggregator: config.AggregatorKyberSwap}
	leg, err := aggregator.NewDelegate(50, client).Quote(context.Background(), src, nil, asset.Zero(asset.WETH), asset.USDC)
	require.NoError(t, err)

	assert.True(t, leg.AmountOut.IsZero())
	assert.True(t, leg.AmountOut.Asset().Equals(asset.USDC))
	assert.Zero(t, hits.Load())
}

func TestDelegate_MapsResponse(t *testing.T) {
	cfg := serve(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"outputAmount": "1990000000",
			"totalGas":     180000,
			"amountInUsd":  "2000",
			"amountOutUsd": "1990",
		})
	})
	client, err := aggregator.NewKyberSwap(cfg)
	require.NoError(t, err)

	src := domain.LiquiditySource{Name: "kyberswap", Model: domain.ModelAggregator, Aggregator: config.AggregatorKyberSwap}
	leg, err := aggregator.NewDelegate(50, client).Quote(context.Background(), src, nil, oneWETH(), asset.USDC)
	require.NoError(t, err)

	assert.Equal(t, domain.KindDelegated, leg.Kind)
	assert.Equal(t, "1990", leg.AmountOut.ToDecimal().String())
	assert.Equal(t, uint64(180000), leg.GasEstimate)

	impact := leg.PriceImpact()
	require.True(t, impact.Valid)
	assert.Equal(t, "0.5", impact.Decimal.String())
}

func TestDelegate_UnknownClient(t *testing.T) {
	src := domain.LiquiditySource{Name: "paraswap", Model: domain.ModelAggregator, Aggregator: "paraswap"}
	_, err := aggregator.NewDelegate(50).Quote(context.Background(), src, nil, oneWETH(), asset.USDC)
	assert.True(t, apperror.HasCode(err, apperror.CodeConfigurationError), "got %v", err)
}
