// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/di"
	"github.com/fd1az/quote-engine/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	// EthClient is nil when no RPC endpoint is configured.
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	// OnClose registers fn to run when the application shuts down.
	OnClose(fn func())
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
	closers       []func()
}

// New creates a new Monolith instance. Without ethereum.http_url the
// container carries no "ethClient" and on-chain modules stay offline.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	registry := NewRegistry(cfg.Tokens)

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("assetRegistry", registry)

	a := &app{
		config:        cfg,
		logger:        log,
		assetRegistry: registry,
		container:     container,
	}

	if cfg.Ethereum.HTTPURL != "" {
		client, err := ethclient.DialContext(ctx, cfg.Ethereum.HTTPURL)
		if err != nil {
			return nil, apperror.New(apperror.CodeConnectionFailed,
				apperror.WithCause(err),
				apperror.WithContext("ethereum rpc"))
		}
		a.ethClient = client
		container.Register("ethClient", client)
		a.OnClose(client.Close)
	} else {
		log.Warn(ctx, "ethereum.http_url not set, on-chain sources disabled")
	}

	return a, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// OnClose registers fn to run on Close, in reverse registration order.
func (a *app) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	return nil
}

// NewRegistry returns the built-in token table plus configured tokens.
// Configured tokens already present keep the built-in entry.
func NewRegistry(tokens []config.TokenConfig) *asset.Registry {
	registry := asset.DefaultRegistry()
	for _, t := range tokens {
		chainID := t.ChainID
		if chainID == 0 {
			chainID = asset.ChainIDEthereum
		}
		name := t.Name
		if name == "" {
			name = t.Symbol
		}
		id := asset.NewTokenAssetID(chainID, common.HexToAddress(t.Address))
		registry.Add(asset.NewAssetWithName(id, t.Symbol, name, t.Decimals))
	}
	return registry
}
