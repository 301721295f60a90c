// Package constantproduct prices Uniswap V2 style pairs locally from reserves.
package constantproduct

import "github.com/fd1az/quote-engine/internal/chain"

// FactoryABI is the subset of IUniswapV2Factory used to find a pair.
var FactoryABI = chain.MustParseABI(`[
	{"name":"getPair","type":"function","stateMutability":"view",
	 "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],
	 "outputs":[{"name":"pair","type":"address"}]}
]`)

// PairABI is the subset of IUniswapV2Pair used to read reserves.
var PairABI = chain.MustParseABI(`[
	{"name":"getReserves","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[
		{"name":"reserve0","type":"uint112"},
		{"name":"reserve1","type":"uint112"},
		{"name":"blockTimestampLast","type":"uint32"}]},
	{"name":"token0","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]}
]`)

// Gas for a single-pair router swap.
const swapGas = 120_000
