package aggregator

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
)

// parseRaw reads an integer amount sent as a decimal string.
func parseRaw(source, field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, apperror.New(apperror.CodeHTTPError,
			apperror.WithContext(source+": invalid "+field+" "+quoteString(s)))
	}
	return v, nil
}

func quoteString(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

// evenSplit shares the input equally across venues when the router only
// reports their names.
func evenSplit(venues []string) []domain.RouteSplit {
	if len(venues) == 0 {
		return nil
	}
	share := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(int64(len(venues))), 4)
	out := make([]domain.RouteSplit, 0, len(venues))
	for _, v := range venues {
		out = append(out, domain.RouteSplit{Venue: v, Proportion: share})
	}
	return out
}
