package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/internal/apperror"
	"github.com/fd1az/quote-engine/internal/asset"
)

// RouteChoice names the better of two routes.
type RouteChoice string

const (
	RouteDirect   RouteChoice = "direct"
	RouteIndirect RouteChoice = "indirect"
	RouteEqual    RouteChoice = "equal"
)

// RouteComparison is the result of comparing a direct and a multi-hop output.
type RouteComparison struct {
	Direct   asset.Amount
	Indirect asset.Amount
	Better   RouteChoice
	DiffBps  int64
	// DiffPct is DiffBps as a percentage with two decimals, e.g. "0.03%".
	DiffPct string
}

// CompareRoutes compares two outputs of the same token.
// The difference is |a-b| * 10000 / max(a, b), floored to whole bps.
func CompareRoutes(direct, indirect asset.Amount) (RouteComparison, error) {
	if !direct.Asset().Equals(indirect.Asset()) {
		return RouteComparison{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("route outputs in "+direct.Asset().Symbol()+" and "+indirect.Asset().Symbol()))
	}

	a, b := direct.Raw(), indirect.Raw()
	cmp := a.Cmp(b)

	res := RouteComparison{Direct: direct, Indirect: indirect, Better: RouteEqual}
	switch {
	case cmp > 0:
		res.Better = RouteDirect
	case cmp < 0:
		res.Better = RouteIndirect
	}

	hi := a
	if cmp < 0 {
		hi = b
	}
	if hi.Sign() > 0 {
		diff := new(big.Int).Sub(a, b)
		diff.Abs(diff)
		diff.Mul(diff, big.NewInt(MaxBps))
		res.DiffBps = diff.Quo(diff, hi).Int64()
	}
	res.DiffPct = decimal.New(res.DiffBps, -2).StringFixed(2) + "%"

	return res, nil
}
