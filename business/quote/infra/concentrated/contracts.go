// Package concentrated quotes Uniswap V3 style pools through the QuoterV2
// contract, trying every configured fee tier.
package concentrated

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/internal/chain"
)

// Fee tiers in hundredths of a bip.
const (
	FeeTier001 = 100
	FeeTier005 = 500
	FeeTier025 = 2500
	FeeTier030 = 3000
	FeeTier100 = 10000
)

// QuoterV2ABI only includes quoteExactInputSingle.
var QuoterV2ABI = chain.MustParseABI(`[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "tokenIn", "type": "address"},
					{"internalType": "address", "name": "tokenOut", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint24", "name": "fee", "type": "uint24"},
					{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"internalType": "struct IQuoterV2.QuoteExactInputSingleParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
			{"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`)

// FactoryABI resolves the pool of a pair at a fee tier.
var FactoryABI = chain.MustParseABI(`[
	{"name":"getPool","type":"function","stateMutability":"view",
	 "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint24"}],
	 "outputs":[{"name":"","type":"address"}]}
]`)

// PoolABI reads the price and in-range liquidity. slot0 only declares the
// leading fields we use.
var PoolABI = chain.MustParseABI(`[
	{"name":"slot0","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"sqrtPriceX96","type":"uint160"},{"name":"tick","type":"int24"}]},
	{"name":"liquidity","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint128"}]}
]`)

// QuoteExactInputSingleParams is the quoter's input tuple.
type QuoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int // uint24
	SqrtPriceLimitX96 *big.Int // uint160, 0 for no limit
}

// QuoteResult is the output of quoteExactInputSingle.
type QuoteResult struct {
	AmountOut               *big.Int
	SqrtPriceX96After       *big.Int
	InitializedTicksCrossed uint32
	GasEstimate             *big.Int
}
