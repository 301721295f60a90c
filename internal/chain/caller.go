// Package chain issues read-only contract calls against an EVM node.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/circuitbreaker"
)

const tracerName = "chain"

// Caller wraps an ethereum.ContractCaller with a circuit breaker, tracing
// and error classification. It is safe for concurrent use.
type Caller struct {
	client ethereum.ContractCaller
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewCaller creates a Caller. name labels the breaker and spans.
func NewCaller(client ethereum.ContractCaller, name string) *Caller {
	cfg := circuitbreaker.DefaultConfig(name)
	// A revert is an answer from a healthy node, not an outage.
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || isRevert(err) || errors.Is(err, context.Canceled)
	}

	return &Caller{
		client: client,
		cb:     circuitbreaker.New[[]byte](cfg),
		tracer: otel.Tracer(tracerName),
	}
}

// MustParseABI parses a JSON ABI or panics. For package-level ABI tables.
func MustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("chain: invalid abi: %v", err))
	}
	return parsed
}

// Call packs method with args, executes it at the latest block and unpacks
// the outputs in ABI order.
func (c *Caller) Call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodePricingError,
			apperror.WithContext("encode "+method),
			apperror.WithCause(err))
	}

	raw, err := c.CallRaw(ctx, to, method, data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, apperror.New(apperror.CodePricingError,
			apperror.WithContext(fmt.Sprintf("%s returned no data from %s", method, to.Hex())))
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, apperror.New(apperror.CodePricingError,
			apperror.WithContext("decode "+method),
			apperror.WithCause(err))
	}
	return out, nil
}

// CallRaw executes pre-encoded calldata.
func (c *Caller) CallRaw(ctx context.Context, to common.Address, method string, data []byte) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "chain.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("to", to.Hex()),
			attribute.String("method", method),
		),
	)
	defer span.End()

	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		err = classify(ctx, method, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_len", len(raw)))
	return raw, nil
}

func classify(ctx context.Context, method string, err error) error {
	switch {
	case apperror.HasCode(err, apperror.CodeCircuitOpen):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperror.New(apperror.CodeTimeout, apperror.WithContext(method), apperror.WithCause(err))
	case isRevert(err):
		return apperror.New(apperror.CodePricingError,
			apperror.WithMessage("execution reverted"),
			apperror.WithContext(method),
			apperror.WithCause(err))
	default:
		return apperror.New(apperror.CodeRPCError, apperror.WithContext(method), apperror.WithCause(err))
	}
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}
