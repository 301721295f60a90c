package asset

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNilRaw          = errors.New("asset: nil raw value")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: cannot operate on different assets")
	ErrNegativeResult  = errors.New("asset: operation would result in negative amount")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
	ErrDivisionByZero  = errors.New("asset: division by zero")
	ErrParse           = errors.New("asset: cannot parse amount")
)

// unsignedDecimal accepts "1" and "1.5" but no sign, exponent or separators.
var unsignedDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Amount is an immutable quantity of an asset in its smallest unit (wei, satoshi...).
// Arithmetic is integer only; decimal.Decimal appears at the parse/display boundary.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount creates a new Amount from a raw big.Int value.
// The raw value must be in the smallest unit (wei, satoshi, etc).
func NewAmount(asset *Asset, raw *big.Int) Amount {
	if asset == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		panic(ErrNilRaw)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}

	return Amount{
		raw:   new(big.Int).Set(raw),
		asset: asset,
	}
}

// Zero creates a zero Amount for the given asset.
func Zero(asset *Asset) Amount {
	return NewAmount(asset, big.NewInt(0))
}

// NewAmountFromInt64 creates an Amount from an int64 raw value.
func NewAmountFromInt64(asset *Asset, raw int64) Amount {
	if raw < 0 {
		panic(ErrNegativeAmount)
	}
	return NewAmount(asset, big.NewInt(raw))
}

// Raw returns a copy of the raw big.Int value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.raw)
}

// Asset returns the asset this amount is denominated in.
func (a Amount) Asset() *Asset {
	return a.asset
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a.raw != nil && a.raw.Sign() > 0
}

// -----------------------------------------------------------------------------
// Arithmetic Operations (type-safe, same asset only)
// -----------------------------------------------------------------------------

// Add adds two amounts of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	return NewAmount(a.asset, new(big.Int).Add(a.raw, b.raw)), nil
}

// Sub subtracts b from a (same asset only).
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.raw.Cmp(b.raw) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return NewAmount(a.asset, new(big.Int).Sub(a.raw, b.raw)), nil
}

// MulDiv returns floor(a * num / den). Used for bps fractions such as slippage bounds.
func (a Amount) MulDiv(num, den int64) (Amount, error) {
	if den == 0 {
		return Amount{}, ErrDivisionByZero
	}
	if num < 0 || den < 0 {
		return Amount{}, ErrNegativeAmount
	}
	result := new(big.Int).Mul(a.Raw(), big.NewInt(num))
	result.Quo(result, big.NewInt(den))
	return NewAmount(a.asset, result), nil
}

// -----------------------------------------------------------------------------
// Comparison Operations
// -----------------------------------------------------------------------------

// Cmp compares two amounts of the same asset.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.checkSameAsset(b); err != nil {
		return 0, err
	}
	return a.Raw().Cmp(b.Raw()), nil
}

// Equals returns true if both amounts are equal (same asset and value).
func (a Amount) Equals(b Amount) bool {
	if a.asset == nil || b.asset == nil || !a.asset.ID().Equals(b.asset.ID()) {
		return false
	}
	return a.Raw().Cmp(b.Raw()) == 0
}

// -----------------------------------------------------------------------------
// Scaling
// -----------------------------------------------------------------------------

// Rescale re-expresses the amount in another asset's decimal precision.
// Scaling up multiplies exactly; scaling down floors.
func (a Amount) Rescale(to *Asset) Amount {
	if to == nil {
		panic(ErrNilAsset)
	}
	return NewAmount(to, RescaleRaw(a.Raw(), a.asset.Decimals(), to.Decimals()))
}

// RescaleRaw converts a raw value between decimal precisions, flooring on division.
func RescaleRaw(raw *big.Int, from, to uint8) *big.Int {
	out := new(big.Int).Set(raw)
	switch {
	case to > from:
		out.Mul(out, pow10(int64(to-from)))
	case to < from:
		out.Quo(out, pow10(int64(from-to)))
	}
	return out
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// -----------------------------------------------------------------------------
// Boundary Functions (parse / display)
// -----------------------------------------------------------------------------

// ToBaseUnits converts a human decimal string into smallest units for the given precision.
func ToBaseUnits(s string, decimals uint8) (*big.Int, error) {
	if len(s) > 0 && s[0] == '-' {
		return nil, fmt.Errorf("%w: %q is negative", ErrParse, s)
	}
	if !unsignedDecimal.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrParse, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParse, s, err)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals: %w", ErrParse, s, decimals, ErrTooManyDecimals)
	}
	return scaled.BigInt(), nil
}

// ParseUnits creates an Amount from a human decimal string such as "1.5".
func ParseUnits(asset *Asset, s string) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	raw, err := ToBaseUnits(s, asset.Decimals())
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(asset, raw), nil
}

// ToDecimal converts the amount to decimal.Decimal for display.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// ToDisplayString renders the amount with exactly places fractional digits.
// Extra digits are truncated, never rounded.
func (a Amount) ToDisplayString(places int32) string {
	return a.ToDecimal().Truncate(places).StringFixed(places)
}

// String returns a human-readable representation (e.g., "1.5 WETH").
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.asset.Symbol())
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

func (a Amount) checkSameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if !a.asset.ID().Equals(b.asset.ID()) {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Symbol(), b.asset.Symbol())
	}
	return nil
}
