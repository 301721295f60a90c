// Package quote implements the quote bounded context: best-execution quotes
// across on-chain venues and off-chain routers.
package quote

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"

	chainDI "github.com/fd1az/quote-engine/business/chain/di"
	"github.com/fd1az/quote-engine/business/quote/app"
	quoteDI "github.com/fd1az/quote-engine/business/quote/di"
	"github.com/fd1az/quote-engine/business/quote/infra/aggregator"
	"github.com/fd1az/quote-engine/business/quote/infra/constantproduct"
	"github.com/fd1az/quote-engine/business/quote/infra/journal"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/di"
	"github.com/fd1az/quote-engine/internal/logger"
	"github.com/fd1az/quote-engine/internal/monolith"
)

const journalOpenTimeout = 5 * time.Second

// Module implements the quote bounded context.
type Module struct{}

// RegisterServices registers all quote services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register aggregator Delegate (private)
	di.RegisterToken(c, quoteDI.Delegate, func(sr di.ServiceRegistry) *aggregator.Delegate {
		cfg := sr.Get("config").(*config.Config)

		clients, err := newAggregatorClients(cfg.Aggregators)
		if err != nil {
			panic("failed to create aggregator clients: " + err.Error())
		}
		return aggregator.NewDelegate(cfg.Orchestrator.DefaultSlippageBps, clients...)
	})

	// Register Venues (private)
	di.RegisterToken(c, quoteDI.Venues, func(sr di.ServiceRegistry) []app.Venue {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		f := &venueFactory{
			delegate: quoteDI.GetDelegate(sr),
			cp:       constantproduct.NewStrategy(),
			logger:   log,
		}
		if client, ok := ethClient(sr); ok {
			f.client = client
		}

		venues, skipped, err := buildVenues(cfg.Sources, registry, f)
		if err != nil {
			panic("failed to build venues: " + err.Error())
		}
		if len(skipped) > 0 {
			log.Warn(context.Background(), "sources skipped", "sources", skipped)
		}
		return venues
	})

	// Register SimulationTable (private)
	di.RegisterToken(c, quoteDI.Simulation, func(sr di.ServiceRegistry) *app.SimulationTable {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		table, err := app.NewSimulationTable(cfg.Simulation, registry, cfg.Ethereum.ChainID)
		if err != nil {
			panic("failed to create simulation table: " + err.Error())
		}
		return table
	})

	// Register Orchestrator (private)
	di.RegisterToken(c, quoteDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		opts := app.OrchestratorOptions{
			Venues:        quoteDI.GetVenues(sr),
			Simulation:    quoteDI.GetSimulation(sr),
			SourceTimeout: cfg.Orchestrator.SourceTimeout,
			Strict:        cfg.Orchestrator.Strict,
			Logger:        log,
		}
		if gas, ok := di.TryGetToken(sr, chainDI.GasService); ok {
			opts.GasPricer = gas
		}

		o, err := app.NewOrchestrator(opts)
		if err != nil {
			panic("failed to create orchestrator: " + err.Error())
		}
		return o
	})

	// Register Journal (private) - only with a database
	cfg := c.Get("config").(*config.Config)
	if cfg.Journal.DatabaseURL != "" {
		di.RegisterToken(c, quoteDI.Journal, func(sr di.ServiceRegistry) app.Journal {
			ctx, cancel := context.WithTimeout(context.Background(), journalOpenTimeout)
			defer cancel()

			j, err := journal.Open(ctx, cfg.Journal.DatabaseURL)
			if err != nil {
				panic("failed to open quote journal: " + err.Error())
			}
			return j
		})
	}

	// Register QuoteService (public - exposed to other modules)
	di.RegisterToken(c, quoteDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		opts := app.ServiceOptions{
			Orchestrator:       quoteDI.GetOrchestrator(sr),
			Registry:           sr.Get("assetRegistry").(*asset.Registry),
			DefaultChainID:     cfg.Ethereum.ChainID,
			DefaultSlippageBps: cfg.Orchestrator.DefaultSlippageBps,
			DefaultDeadline:    cfg.Orchestrator.DefaultDeadline,
			Logger:             log,
		}
		if client, ok := ethClient(sr); ok {
			opts.Metadata = chain.NewCaller(client, "erc20-metadata")
		}
		if j, ok := di.TryGetToken(sr, quoteDI.Journal); ok {
			opts.Journal = j
		}
		return app.NewQuoteService(opts)
	})

	return nil
}

// Startup resolves the quote service so wiring errors surface before the
// first request, and registers shutdown hooks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	svc := quoteDI.GetQuoteService(sr)
	mono.OnClose(svc.Close)

	if j, ok := di.TryGetToken(sr, quoteDI.Journal); ok {
		if pg, ok := j.(*journal.Postgres); ok {
			mono.OnClose(pg.Close)
		}
		log.Info(ctx, "quote journal enabled")
	}

	venues := quoteDI.GetVenues(sr)
	names := make([]string, 0, len(venues))
	for _, v := range venues {
		names = append(names, v.Source.Name)
	}

	log.Info(ctx, "quote module started", "sources", names)
	return nil
}

func ethClient(sr di.ServiceRegistry) (ethereum.ContractCaller, bool) {
	h, ok := sr.(interface{ Has(string) bool })
	if !ok || !h.Has("ethClient") {
		return nil, false
	}
	return sr.Get("ethClient").(*ethclient.Client), true
}
