package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum  = 1
	ChainIDOptimism  = 10
	ChainIDBSC       = 56
	ChainIDGnosis    = 100
	ChainIDPolygon   = 137
	ChainIDFantom    = 250
	ChainIDBase      = 8453
	ChainIDArbitrum  = 42161
	ChainIDCelo      = 42220
	ChainIDAvalanche = 43114
	ChainIDSepolia   = 11155111
)

// Ethereum mainnet token addresses
var (
	AddrWETHEthereum = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrUSDCEthereum = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDTEthereum = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrDAIEthereum  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrWBTCEthereum = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	AddrKNCEthereum  = common.HexToAddress("0xdeFA4e8a7bcBA345F687a2f1456F5Edd9CE97202")
	AddrCAKEEthereum = common.HexToAddress("0x152649eA73beAb28c5b49B26eb48f7EAD6d4c898")
	AddrBALEthereum  = common.HexToAddress("0xba100000625a3754423978a60c9317c58a424e3D")
)

// Ethereum mainnet assets
var (
	ETH  = MustNewNative(ChainIDEthereum, "ETH", "Ethereum", 18)
	WETH = MustNewToken(ChainIDEthereum, AddrWETHEthereum, "WETH", "Wrapped Ether", 18)
	USDC = MustNewToken(ChainIDEthereum, AddrUSDCEthereum, "USDC", "USD Coin", 6)
	USDT = MustNewToken(ChainIDEthereum, AddrUSDTEthereum, "USDT", "Tether USD", 6)
	DAI  = MustNewToken(ChainIDEthereum, AddrDAIEthereum, "DAI", "Dai Stablecoin", 18)
	WBTC = MustNewToken(ChainIDEthereum, AddrWBTCEthereum, "WBTC", "Wrapped BTC", 8)
	KNC  = MustNewToken(ChainIDEthereum, AddrKNCEthereum, "KNC", "Kyber Network Crystal v2", 18)
	CAKE = MustNewToken(ChainIDEthereum, AddrCAKEEthereum, "CAKE", "PancakeSwap Token", 18)
	BAL  = MustNewToken(ChainIDEthereum, AddrBALEthereum, "BAL", "Balancer", 18)
)

// DefaultRegistry returns a registry pre-populated with the mainnet token table.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{ETH, WETH, USDC, USDT, DAI, WBTC, KNC, CAKE, BAL} {
		r.Register(a)
	}
	return r
}

// MustNewToken creates a new ERC20 token asset with the given parameters.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, name, decimals)
}

// MustNewNative creates a new native coin asset.
func MustNewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	id := NewNativeAssetID(chainID)
	return NewAssetWithName(id, symbol, name, decimals)
}
