package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultStatusCodes(t *testing.T) {
	tests := []struct {
		code apperror.Code
		want int
	}{
		{apperror.CodeInvalidAmount, http.StatusBadRequest},
		{apperror.CodeUnknownToken, http.StatusNotFound},
		{apperror.CodeUnsupportedChain, http.StatusBadRequest},
		{apperror.CodeRateLimited, http.StatusTooManyRequests},
		{apperror.CodeTimeout, http.StatusGatewayTimeout},
		{apperror.CodeSourceUnavailable, http.StatusServiceUnavailable},
		{apperror.CodeRPCError, http.StatusBadGateway},
		{apperror.CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.New(tt.code).StatusCode)
		})
	}
}

func TestHasCode_FollowsCauseChain(t *testing.T) {
	root := errors.New("dial tcp: i/o timeout")
	timeout := apperror.New(apperror.CodeTimeout, apperror.WithCause(root))
	unavailable := apperror.New(apperror.CodeSourceUnavailable,
		apperror.WithContext("uniswap-v2"), apperror.WithCause(timeout))
	wrapped := fmt.Errorf("quote: %w", unavailable)

	assert.True(t, apperror.HasCode(wrapped, apperror.CodeSourceUnavailable))
	assert.True(t, apperror.HasCode(wrapped, apperror.CodeTimeout))
	assert.False(t, apperror.HasCode(wrapped, apperror.CodeRateLimited))
	assert.Equal(t, apperror.CodeSourceUnavailable, apperror.GetCode(wrapped))
	assert.ErrorIs(t, wrapped, root)
	assert.Contains(t, wrapped.Error(), "uniswap-v2")
}

func TestWrap_KeepsExistingAppError(t *testing.T) {
	orig := apperror.Validation(apperror.CodeInvalidAmount, "")
	got := apperror.Wrap(orig, apperror.CodeInternalError, "parse amountIn")

	require.Same(t, orig, got)
	assert.Equal(t, "parse amountIn", got.Context)
	assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, "x"))
}

func TestToResponse(t *testing.T) {
	err := apperror.Validation(apperror.CodeUnknownToken, "FOO").WithTraceID("abc")
	resp := err.ToResponse().Error

	assert.Equal(t, apperror.CodeUnknownToken, resp.Code)
	assert.Equal(t, "FOO", resp.Context)
	assert.Equal(t, "abc", resp.TraceID)
	assert.NotContains(t, err.ToLog(), "cause")
}
