package app

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
	"github.com/fd1az/quote-engine/internal/config"
)

// SimulatedSource names legs served from the table without a venue entry.
const SimulatedSource = "simulation"

type simKey struct {
	source string
	in     asset.AssetID
	out    asset.AssetID
}

type simEntry struct {
	source      string
	amountIn    *big.Int
	amountOut   *big.Int
	gasEstimate uint64
	impact      decimal.NullDecimal
	composition []domain.RouteSplit
}

// SimulationTable holds canned quotes used when no live source answers.
// Read-only after construction.
type SimulationTable struct {
	entries map[simKey]simEntry
	chains  map[uint64]bool
}

// NewSimulationTable resolves config entries against registry. Entries without
// a chain id belong to defaultChain.
func NewSimulationTable(entries []config.SimulationEntry, registry *asset.Registry, defaultChain uint64) (*SimulationTable, error) {
	t := &SimulationTable{
		entries: make(map[simKey]simEntry, len(entries)),
		chains:  make(map[uint64]bool),
	}

	for i, e := range entries {
		chainID := e.ChainID
		if chainID == 0 {
			chainID = defaultChain
		}

		in, ok := registry.Resolve(chainID, e.TokenIn)
		if !ok {
			return nil, simConfigError(i, "unknown token "+e.TokenIn)
		}
		out, ok := registry.Resolve(chainID, e.TokenOut)
		if !ok {
			return nil, simConfigError(i, "unknown token "+e.TokenOut)
		}

		amountIn, err := asset.ParseUnits(in, e.AmountIn)
		if err != nil || amountIn.IsZero() {
			return nil, simConfigError(i, "amount_in must be a positive decimal")
		}
		amountOut, err := asset.ParseUnits(out, e.AmountOut)
		if err != nil {
			return nil, simConfigError(i, "amount_out: "+err.Error())
		}

		entry := simEntry{
			source:      e.Source,
			amountIn:    amountIn.Raw(),
			amountOut:   amountOut.Raw(),
			gasEstimate: e.GasEstimate,
		}
		if e.PriceImpactPct != "" {
			d, err := decimal.NewFromString(e.PriceImpactPct)
			if err != nil {
				return nil, simConfigError(i, "price_impact_pct: "+err.Error())
			}
			entry.impact = decimal.NewNullDecimal(d)
		}
		for _, r := range e.Route {
			p, err := decimal.NewFromString(r.Proportion)
			if err != nil {
				return nil, simConfigError(i, "route proportion: "+err.Error())
			}
			entry.composition = append(entry.composition, domain.RouteSplit{Venue: r.Venue, Proportion: p})
		}

		t.entries[simKey{source: e.Source, in: in.ID(), out: out.ID()}] = entry
		t.chains[chainID] = true
	}

	return t, nil
}

// ServesChain reports whether any entry exists for chainID.
func (t *SimulationTable) ServesChain(chainID uint64) bool {
	return t != nil && t.chains[chainID]
}

// Lookup returns the simulated leg for amountIn. The search order is
// (source, pair), (pair), then the reverse pair inverted. Without an entry the
// leg has a zero output and no route. Outputs scale linearly from the
// reference amounts and are floored.
func (t *SimulationTable) Lookup(source string, pair domain.Pair, amountIn asset.Amount) (domain.QuoteLeg, decimal.NullDecimal) {
	leg := domain.QuoteLeg{
		Source:    SimulatedSource,
		AmountIn:  amountIn,
		AmountOut: asset.Zero(pair.Out),
	}
	if t == nil {
		return leg, decimal.NullDecimal{}
	}

	fwd := simKey{in: pair.In.ID(), out: pair.Out.ID()}
	rev := simKey{in: pair.Out.ID(), out: pair.In.ID()}

	var (
		e        simEntry
		found    bool
		reversed bool
	)
	candidates := []struct {
		key      simKey
		reversed bool
	}{
		{simKey{source: source, in: fwd.in, out: fwd.out}, false},
		{fwd, false},
		{simKey{source: source, in: rev.in, out: rev.out}, true},
		{rev, true},
	}
	for _, c := range candidates {
		if e, found = t.entries[c.key]; found {
			reversed = c.reversed
			break
		}
	}
	if !found {
		return leg, decimal.NullDecimal{}
	}

	num, den := e.amountOut, e.amountIn
	if reversed {
		num, den = e.amountIn, e.amountOut
	}

	out := new(big.Int)
	if den.Sign() > 0 {
		out.Mul(amountIn.Raw(), num)
		out.Quo(out, den)
	}

	if e.source != "" {
		leg.Source = e.source
	}
	leg.AmountOut = asset.NewAmount(pair.Out, out)
	leg.GasEstimate = e.gasEstimate
	leg.Composition = e.composition
	leg.Route = []domain.Hop{{Venue: leg.Source, TokenIn: pair.In.Address(), TokenOut: pair.Out.Address()}}

	return leg, e.impact
}

func simConfigError(i int, msg string) error {
	return apperror.New(apperror.CodeConfigurationError,
		apperror.WithContext(fmt.Sprintf("simulation[%d]: %s", i, msg)))
}
