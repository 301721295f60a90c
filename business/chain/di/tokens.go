// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/quote-engine/business/chain/app"
	"github.com/fd1az/quote-engine/internal/di"
)

// Public service tokens - exposed to other modules
var (
	GasService = di.NewToken[*app.GasService]("chain.GasService")
)

// Private dependency tokens - internal to chain module
var (
	GasOracle = di.NewToken[app.GasOracle]("chain:gasOracle")
)

func GetGasService(c di.ServiceRegistry) *app.GasService {
	return di.GetToken(c, GasService)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}
