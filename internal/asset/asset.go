package asset

import "github.com/ethereum/go-ethereum/common"

// MaxDecimals is the largest precision a token may declare. Anything above
// it is treated as a broken decimals() answer.
const MaxDecimals = 30

// Asset is a token's identity plus what is needed to scale its amounts.
// Assets are built once, from config or an on-chain lookup, and then shared.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset panics on an empty symbol or more than MaxDecimals decimals.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	switch {
	case symbol == "":
		panic("asset: empty symbol")
	case decimals > MaxDecimals:
		panic("asset: decimals above MaxDecimals")
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

// NewAssetWithName is NewAsset with a display name.
func NewAssetWithName(id AssetID, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	return a
}

func (a *Asset) ID() AssetID             { return a.id }
func (a *Asset) Symbol() string          { return a.symbol }
func (a *Asset) Decimals() uint8         { return a.decimals }
func (a *Asset) ChainID() uint64         { return a.id.ChainID() }
func (a *Asset) Address() common.Address { return a.id.Address() }
func (a *Asset) String() string          { return a.symbol }

// Name falls back to the symbol when no name was given.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Equals compares by ID. Two nil assets are equal.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
