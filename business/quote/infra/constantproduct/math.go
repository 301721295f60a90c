package constantproduct

import (
	"math/big"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
)

var bpsDen = big.NewInt(domain.MaxBps)

// AmountOut evaluates x·y=k for an exact input with the fee taken from the input:
//
//	inWithFee = amountIn · (10000 - feeBps) / 10000
//	amountOut = inWithFee · reserveOut / (reserveIn + inWithFee)
//
// Both divisions floor.
func AmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps int64) (*big.Int, error) {
	if feeBps < 0 || feeBps >= domain.MaxBps {
		return nil, apperror.New(apperror.CodePricingError, apperror.WithContext("fee out of range"))
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("empty reserve"))
	}

	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(domain.MaxBps-feeBps))
	inWithFee.Quo(inWithFee, bpsDen)

	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Add(reserveIn, inWithFee)

	return num.Quo(num, den), nil
}
