// Package aggregator delegates pricing to off-chain DEX routers over HTTP.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/circuitbreaker"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/httpclient"
	"github.com/fd1az/quote-engine/internal/ratelimit"
)

// NativeTokenAddress is the placeholder routers use for the chain's native coin.
var NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

const maxErrorBody = 256

// base is the plumbing shared by every router client: an instrumented HTTP
// client, a token bucket and a breaker.
type base struct {
	name    string
	chains  map[uint64]bool
	http    httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[*domain.AggregatorResponse]
	apiKey  string
}

func newBase(name string, cfg config.AggregatorConfig, chains []uint64, opts ...httpclient.ClientOption) (*base, error) {
	opts = append([]httpclient.ClientOption{
		httpclient.WithProviderName(name),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
	}, opts...)

	client, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s http client: %w", name, err)
	}

	cbCfg := circuitbreaker.DefaultConfig(name)
	// "No route" is an answer, not an outage.
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			apperror.HasCode(err, apperror.CodeUnsupportedPair) ||
			errors.Is(err, context.Canceled)
	}

	allowed := make(map[uint64]bool, len(chains))
	for _, id := range chains {
		allowed[id] = true
	}

	return &base{
		name:    name,
		chains:  allowed,
		http:    client,
		limiter: ratelimit.New(name, cfg.RequestsPerMinute),
		cb:      circuitbreaker.New[*domain.AggregatorResponse](cbCfg),
		apiKey:  cfg.APIKey,
	}, nil
}

func (b *base) Name() string { return b.name }

func (b *base) SupportsChain(chainID uint64) bool { return b.chains[chainID] }

// request returns a builder that maps error statuses to coded errors.
func (b *base) request() httpclient.Request {
	return b.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(b.statusError),
		httpclient.WithLabels(httpclient.NewLabel("aggregator", b.name)),
		httpclient.WithHeadersLogConfig(true, "authorization", "0x-api-key"),
	)
}

// fetch applies the chain allow-list, the limiter and the breaker around call.
func (b *base) fetch(ctx context.Context, req domain.AggregatorRequest, call func(context.Context) (*domain.AggregatorResponse, error)) (*domain.AggregatorResponse, error) {
	if !b.SupportsChain(req.ChainID) {
		return nil, apperror.New(apperror.CodeUnsupportedChain,
			apperror.WithContext(fmt.Sprintf("%s does not serve chain %d", b.name, req.ChainID)))
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.cb.Execute(func() (*domain.AggregatorResponse, error) {
		return call(ctx)
	})
}

// get executes req and normalises transport failures.
func (b *base) get(ctx context.Context, req httpclient.Request, path string) error {
	_, err := req.Get(ctx, path)
	if err == nil {
		return nil
	}

	switch {
	case apperror.IsAppError(err):
		return err
	case errors.Is(err, httpclient.ErrDecode):
		return apperror.New(apperror.CodeHTTPError, apperror.WithContext(b.name+": invalid response body"), apperror.WithCause(err))
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.New(apperror.CodeTimeout, apperror.WithContext(b.name), apperror.WithCause(err))
	default:
		return apperror.New(apperror.CodeConnectionFailed, apperror.WithContext(b.name), apperror.WithCause(err))
	}
}

func (b *base) statusError(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}

	detail := string(body)
	if len(detail) > maxErrorBody {
		detail = detail[:maxErrorBody]
	}
	ctx := fmt.Sprintf("%s: status %d: %s", b.name, status, detail)

	switch status {
	case http.StatusTooManyRequests:
		return apperror.New(apperror.CodeRateLimited, apperror.WithContext(ctx))
	case http.StatusBadRequest, http.StatusNotFound:
		return apperror.New(apperror.CodeUnsupportedPair, apperror.WithContext(ctx))
	default:
		return apperror.New(apperror.CodeHTTPError, apperror.WithContext(ctx))
	}
}

// tokenParam renders a token the way routers expect it.
func tokenParam(a *asset.Asset) string {
	if a.ID().IsNative() {
		return NativeTokenAddress.Hex()
	}
	return a.Address().Hex()
}
