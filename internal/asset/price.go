package asset

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of fractional digits a Price keeps.
const PricePrecision = 18

var priceScale = pow10(PricePrecision)

// Price is how many whole units of Out one whole unit of In buys, held as a
// fixed-point integer scaled by 10^PricePrecision.
type Price struct {
	rate *big.Int
	in   *Asset
	out  *Asset
	at   time.Time
}

// NewPriceFromBigInt wraps an already scaled rate. The rate is copied.
func NewPriceFromBigInt(in, out *Asset, rate *big.Int, at time.Time) Price {
	switch {
	case in == nil || out == nil:
		panic(ErrNilAsset)
	case rate == nil || rate.Sign() < 0:
		panic("asset: price rate must be non-negative")
	}
	return Price{rate: new(big.Int).Set(rate), in: in, out: out, at: at}
}

// PriceFromAmounts is the unit price implied by swapping in for out:
// out·10^inDecimals·10^18 / (in·10^outDecimals), floored. A zero input
// prices at zero.
func PriceFromAmounts(in, out Amount, at time.Time) Price {
	if in.IsZero() {
		return NewPriceFromBigInt(in.Asset(), out.Asset(), new(big.Int), at)
	}

	num := new(big.Int).Mul(out.Raw(), pow10(int64(in.Asset().Decimals())))
	num.Mul(num, priceScale)
	den := new(big.Int).Mul(in.Raw(), pow10(int64(out.Asset().Decimals())))

	return NewPriceFromBigInt(in.Asset(), out.Asset(), num.Quo(num, den), at)
}

// Rate is the price as a decimal.
func (p Price) Rate() decimal.Decimal {
	if p.rate == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.rate, -PricePrecision)
}

// Timestamp is when the inputs to the price were observed.
func (p Price) Timestamp() time.Time {
	return p.at
}

// Pair renders the price direction as "IN/OUT".
func (p Price) Pair() string {
	if p.in == nil || p.out == nil {
		return "?/?"
	}
	return p.in.Symbol() + "/" + p.out.Symbol()
}

func (p Price) IsZero() bool {
	return p.rate == nil || p.rate.Sign() == 0
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Rate(), p.Pair())
}

// StringFixed truncates the rate to places fractional digits.
func (p Price) StringFixed(places int32) string {
	return p.Rate().Truncate(places).StringFixed(places)
}
