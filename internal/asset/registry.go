package asset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known tokens, keyed by identity and by symbol.
// Symbols are matched case-insensitively.
type Registry struct {
	byID     map[AssetID]*Asset
	bySymbol map[string][]*Asset // symbol -> assets (one per chain)
	mu       sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[AssetID]*Asset),
		bySymbol: make(map[string][]*Asset),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same ID is already registered.
func (r *Registry) Register(a *Asset) {
	if _, added := r.Add(a); !added {
		panic(fmt.Sprintf("asset: %s already registered", a.ID()))
	}
}

// Add registers a if its ID is unknown. It returns the registered asset for that ID
// and whether a was the one stored.
func (r *Registry) Add(a *Asset) (*Asset, bool) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[a.ID()]; ok {
		return existing, false
	}

	key := strings.ToUpper(a.Symbol())
	r.byID[a.ID()] = a
	r.bySymbol[key] = append(r.bySymbol[key], a)
	return a, true
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// GetBySymbolAndChain retrieves an asset by symbol and chain ID.
func (r *Registry) GetBySymbolAndChain(symbol string, chainID uint64) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.bySymbol[strings.ToUpper(symbol)] {
		if a.ChainID() == chainID {
			return a, true
		}
	}
	return nil, false
}

// GetToken retrieves a token by chain and address.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	if address == (common.Address{}) {
		return r.Get(NewNativeAssetID(chainID))
	}
	return r.Get(NewTokenAssetID(chainID, address))
}

// Resolve finds a token on chainID by symbol or by hex address.
func (r *Registry) Resolve(chainID uint64, symbolOrAddress string) (*Asset, bool) {
	if common.IsHexAddress(symbolOrAddress) {
		return r.GetToken(chainID, common.HexToAddress(symbolOrAddress))
	}
	return r.GetBySymbolAndChain(symbolOrAddress, chainID)
}
