// Package chain implements the chain bounded context: gas pricing for the
// configured EVM network.
package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/quote-engine/business/chain/app"
	chainDI "github.com/fd1az/quote-engine/business/chain/di"
	"github.com/fd1az/quote-engine/business/chain/infra/ethereum"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/di"
	"github.com/fd1az/quote-engine/internal/logger"
	"github.com/fd1az/quote-engine/internal/monolith"
)

const healthTimeout = 3 * time.Second

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers the gas services. Without an RPC client nothing
// is registered and quotes carry no gas cost.
func (m *Module) RegisterServices(c di.Container) error {
	if !c.Has("ethClient") {
		return nil
	}

	// Register GasOracle (private - internal dependency)
	di.RegisterToken(c, chainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		oracleCfg := ethereum.DefaultGasOracleConfig()
		if cfg.Ethereum.GasCacheTTL > 0 {
			oracleCfg.CacheTTL = cfg.Ethereum.GasCacheTTL
		}
		if cfg.Ethereum.MaxGasGwei > 0 {
			oracleCfg.MaxGasPrice = ethereum.Gwei(cfg.Ethereum.MaxGasGwei)
		}

		oracle, err := ethereum.NewGasOracle(client, oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register GasService (public - exposed to other modules)
	di.RegisterToken(c, chainDI.GasService, func(sr di.ServiceRegistry) *app.GasService {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		native, ok := registry.Get(asset.NewNativeAssetID(cfg.Ethereum.ChainID))
		if !ok {
			native = asset.MustNewNative(cfg.Ethereum.ChainID, "ETH", "Ether", 18)
		}
		return app.NewGasService(chainDI.GetGasOracle(sr), native)
	})

	return nil
}

// Startup warms the gas price so the first quote does not pay for it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc, ok := di.TryGetToken(mono.Services(), chainDI.GasService)
	if !ok {
		log.Info(ctx, "chain module started without rpc")
		return nil
	}

	if oracle, ok := chainDI.GetGasOracle(mono.Services()).(interface{ Close() error }); ok {
		mono.OnClose(func() { _ = oracle.Close() })
	}

	warmCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if price, err := svc.GasPrice(warmCtx); err != nil {
		// Don't fail - quotes are served without gas cost until the node answers
		log.Warn(ctx, "gas price unavailable", "error", err)
	} else {
		log.Info(ctx, "chain module started", "gas_gwei", price.Gwei.String())
	}
	return nil
}

// HealthCheck reports whether the node answers gas price requests.
func HealthCheck(svc *app.GasService) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()

		price, err := svc.GasPrice(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, price.Gwei.String() + " gwei"
	}
}
