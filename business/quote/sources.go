package quote

import (
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/business/quote/infra/aggregator"
	"github.com/fd1az/quote-engine/business/quote/infra/concentrated"
	"github.com/fd1az/quote-engine/business/quote/infra/constantproduct"
	"github.com/fd1az/quote-engine/business/quote/infra/stableswap"
	"github.com/fd1az/quote-engine/business/quote/infra/weighted"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/chain"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/logger"
)

// toLiquiditySource converts a validated source entry. Pool token symbols
// resolve on the source's first chain.
func toLiquiditySource(sc config.SourceConfig, registry *asset.Registry) (domain.LiquiditySource, error) {
	src := domain.LiquiditySource{
		Name:       sc.Name,
		Protocol:   sc.Protocol,
		Model:      domain.Model(sc.Model),
		Chains:     sc.Chains,
		Priority:   sc.Priority,
		FeeBps:     sc.FeeBps,
		FeeTiers:   sc.FeeTiers,
		Factory:    hexAddress(sc.Factory),
		Router:     hexAddress(sc.Router),
		Quoter:     hexAddress(sc.Quoter),
		Vault:      hexAddress(sc.Vault),
		Aggregator: sc.Aggregator,
	}
	if src.Protocol == "" {
		src.Protocol = sc.Name
	}

	for _, pc := range sc.Pools {
		pool := domain.Pool{
			Address:   hexAddress(pc.Address),
			Name:      pc.Name,
			IndexType: pc.IndexType,
		}
		if pc.ID != "" {
			pool.ID = common.HexToHash(pc.ID)
		}
		for _, sym := range pc.Tokens {
			a, ok := registry.Resolve(sc.Chains[0], sym)
			if !ok {
				return domain.LiquiditySource{}, fmt.Errorf("pool %s: unknown token %q", pc.Name, sym)
			}
			pool.Tokens = append(pool.Tokens, a)
		}
		src.Pools = append(src.Pools, pool)
	}

	return src, nil
}

func hexAddress(s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return common.HexToAddress(s)
}

// venueFactory binds sources to readers and strategies.
type venueFactory struct {
	// client is nil without an RPC endpoint; on-chain sources are then skipped.
	client   ethereum.ContractCaller
	delegate *aggregator.Delegate
	cp       *constantproduct.Strategy
	logger   logger.LoggerInterface
}

// build returns the venue for src, or ok=false when it cannot be served in
// this process.
func (f *venueFactory) build(src domain.LiquiditySource) (app.Venue, bool, error) {
	if src.Model == domain.ModelAggregator {
		if _, ok := f.delegate.Client(src.Aggregator); !ok {
			return app.Venue{}, false, nil
		}
		return app.Venue{Source: src, Strategy: f.delegate}, true, nil
	}

	if f.client == nil {
		return app.Venue{}, false, nil
	}
	caller := chain.NewCaller(f.client, src.Name)

	switch src.Model {
	case domain.ModelConstantProduct:
		return app.Venue{Source: src, Reader: constantproduct.NewReader(caller), Strategy: f.cp}, true, nil
	case domain.ModelWeighted:
		return app.Venue{Source: src, Reader: weighted.NewReader(caller), Strategy: weighted.NewStrategy(caller)}, true, nil
	case domain.ModelStableSwap:
		return app.Venue{Source: src, Reader: stableswap.NewReader(caller), Strategy: stableswap.NewStrategy(caller)}, true, nil
	case domain.ModelConcentrated:
		strategy, err := concentrated.NewStrategy(caller, f.logger)
		if err != nil {
			return app.Venue{}, false, err
		}
		return app.Venue{Source: src, Reader: concentrated.NewReader(caller), Strategy: strategy}, true, nil
	default:
		return app.Venue{}, false, fmt.Errorf("unknown model %q", src.Model)
	}
}

// buildVenues converts every enabled source, in configuration order.
func buildVenues(sources []config.SourceConfig, registry *asset.Registry, f *venueFactory) ([]app.Venue, []string, error) {
	var (
		venues  []app.Venue
		skipped []string
	)
	for _, sc := range sources {
		if sc.Disabled {
			continue
		}
		src, err := toLiquiditySource(sc, registry)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		v, ok, err := f.build(src)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		if !ok {
			skipped = append(skipped, sc.Name)
			continue
		}
		venues = append(venues, v)
	}
	return venues, skipped, nil
}

// newAggregatorClients builds a client per enabled router.
func newAggregatorClients(aggs map[string]config.AggregatorConfig) ([]app.AggregatorClient, error) {
	constructors := []struct {
		name string
		new  func(config.AggregatorConfig) (app.AggregatorClient, error)
	}{
		{config.AggregatorKyberSwap, func(c config.AggregatorConfig) (app.AggregatorClient, error) { return aggregator.NewKyberSwap(c) }},
		{config.AggregatorOneInch, func(c config.AggregatorConfig) (app.AggregatorClient, error) { return aggregator.NewOneInch(c) }},
		{config.AggregatorZeroX, func(c config.AggregatorConfig) (app.AggregatorClient, error) { return aggregator.NewZeroX(c) }},
		{config.AggregatorUniswap, func(c config.AggregatorConfig) (app.AggregatorClient, error) { return aggregator.NewUniswap(c) }},
	}

	var clients []app.AggregatorClient
	for _, c := range constructors {
		cfg, ok := aggs[c.name]
		if !ok || !cfg.IsEnabled() {
			continue
		}
		client, err := c.new(cfg)
		if err != nil {
			return nil, fmt.Errorf("aggregator %s: %w", c.name, err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}
