// Package weighted prices Balancer V2 pools by asking the vault to simulate a batch swap.
package weighted

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/internal/chain"
)

// VaultABI is the subset of the Balancer V2 vault used for quoting.
var VaultABI = chain.MustParseABI(`[
	{"name":"getPoolTokens","type":"function","stateMutability":"view",
	 "inputs":[{"name":"poolId","type":"bytes32"}],
	 "outputs":[
		{"name":"tokens","type":"address[]"},
		{"name":"balances","type":"uint256[]"},
		{"name":"lastChangeBlock","type":"uint256"}]},
	{"name":"queryBatchSwap","type":"function","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"kind","type":"uint8"},
		{"name":"swaps","type":"tuple[]","components":[
			{"name":"poolId","type":"bytes32"},
			{"name":"assetInIndex","type":"uint256"},
			{"name":"assetOutIndex","type":"uint256"},
			{"name":"amount","type":"uint256"},
			{"name":"userData","type":"bytes"}]},
		{"name":"assets","type":"address[]"},
		{"name":"funds","type":"tuple","components":[
			{"name":"sender","type":"address"},
			{"name":"fromInternalBalance","type":"bool"},
			{"name":"recipient","type":"address"},
			{"name":"toInternalBalance","type":"bool"}]}],
	 "outputs":[{"name":"assetDeltas","type":"int256[]"}]}
]`)

// SwapKind values of IVault.SwapKind.
const (
	GivenIn  uint8 = 0
	GivenOut uint8 = 1
)

// BatchSwapStep mirrors IVault.BatchSwapStep.
type BatchSwapStep struct {
	PoolId        [32]byte
	AssetInIndex  *big.Int
	AssetOutIndex *big.Int
	Amount        *big.Int
	UserData      []byte
}

// FundManagement mirrors IVault.FundManagement.
type FundManagement struct {
	Sender              common.Address
	FromInternalBalance bool
	Recipient           common.Address
	ToInternalBalance   bool
}

const (
	baseGas = 40_000
	hopGas  = 90_000
)
