package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/internal/apperror"
)

// ERC20ABI covers the metadata getters used for token discovery.
var ERC20ABI = MustParseABI(`[
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`)

// TokenMetadata is what an ERC-20 reports about itself.
type TokenMetadata struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// TokenMetadata reads decimals() and symbol() from token. decimals is required;
// a token without a string symbol is labelled by its address prefix.
func (c *Caller) TokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	out, err := c.Call(ctx, token, ERC20ABI, "decimals")
	if err != nil {
		return TokenMetadata{}, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return TokenMetadata{}, apperror.New(apperror.CodePricingError, apperror.WithContext("decimals type"))
	}

	meta := TokenMetadata{Address: token, Decimals: decimals, Symbol: token.Hex()[:8]}
	if out, err := c.Call(ctx, token, ERC20ABI, "symbol"); err == nil {
		if s, ok := out[0].(string); ok && s != "" {
			meta.Symbol = s
		}
	}
	return meta, nil
}
