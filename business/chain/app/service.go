package app

import (
	"context"

	"github.com/fd1az/quote-engine/business/chain/domain"
	"github.com/fd1az/quote-engine/internal/asset"
)

// GasService prices gas in the chain's native coin.
type GasService struct {
	oracle GasOracle
	native *asset.Asset
}

// NewGasService creates a GasService for the chain whose native coin is native.
func NewGasService(oracle GasOracle, native *asset.Asset) *GasService {
	return &GasService{oracle: oracle, native: native}
}

// GasPrice retrieves the current gas price.
func (s *GasService) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.oracle.GasPrice(ctx)
}

// GasCost returns gas * current price as a native-coin amount.
func (s *GasService) GasCost(ctx context.Context, gas uint64) (asset.Amount, error) {
	price, err := s.oracle.GasPrice(ctx)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(s.native, price.Cost(gas)), nil
}
