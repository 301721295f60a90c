// Package stableswap prices Curve pools by calling the pool's get_dy.
package stableswap

import "github.com/fd1az/quote-engine/internal/chain"

// Coin index encodings accepted by get_dy.
const (
	IndexInt128  = "int128"
	IndexUint256 = "uint256"
)

// PoolABI covers plain StableSwap pools, where get_dy takes int128 indices.
var PoolABI = chain.MustParseABI(`[
	{"name":"coins","type":"function","stateMutability":"view",
	 "inputs":[{"name":"i","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"balances","type":"function","stateMutability":"view",
	 "inputs":[{"name":"i","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"A","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"fee","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"get_dy","type":"function","stateMutability":"view",
	 "inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`)

// CryptoPoolABI covers pools whose get_dy takes uint256 indices (tricrypto).
var CryptoPoolABI = chain.MustParseABI(`[
	{"name":"get_dy","type":"function","stateMutability":"view",
	 "inputs":[{"name":"i","type":"uint256"},{"name":"j","type":"uint256"},{"name":"dx","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`)

const (
	stableSwapGas = 150_000
	cryptoSwapGas = 200_000
)
