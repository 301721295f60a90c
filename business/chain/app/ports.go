// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"

	"github.com/fd1az/quote-engine/business/chain/domain"
)

// GasOracle defines the interface for gas price information.
type GasOracle interface {
	// GasPrice retrieves the current gas price.
	GasPrice(ctx context.Context) (*domain.GasPrice, error)
}
