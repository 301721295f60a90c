// Package domain contains the core domain types for the chain context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice is a suggested gas price at a point in time.
type GasPrice struct {
	Wei       *big.Int
	Gwei      decimal.Decimal
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int, ts time.Time) *GasPrice {
	return &GasPrice{
		Wei:       wei,
		Gwei:      decimal.NewFromBigInt(wei, -9),
		Timestamp: ts,
	}
}

// Cost returns gas * price in wei.
func (p *GasPrice) Cost(gas uint64) *big.Int {
	return new(big.Int).Mul(p.Wei, new(big.Int).SetUint64(gas))
}
