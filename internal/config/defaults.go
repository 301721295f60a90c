package config

import "time"

// Aggregator names used as keys under aggregators.
const (
	AggregatorKyberSwap = "kyberswap"
	AggregatorOneInch   = "1inch"
	AggregatorZeroX     = "0x"
	AggregatorUniswap   = "uniswap"
)

// DefaultAggregators returns the public endpoints of the supported routers.
func DefaultAggregators() map[string]AggregatorConfig {
	return map[string]AggregatorConfig{
		AggregatorKyberSwap: {BaseURL: "https://aggregator-api.kyberswap.com", RequestsPerMinute: 60, Timeout: 5 * time.Second},
		AggregatorOneInch:   {BaseURL: "https://api.1inch.io", RequestsPerMinute: 60, Timeout: 5 * time.Second},
		AggregatorZeroX:     {BaseURL: "https://api.0x.org", RequestsPerMinute: 60, Timeout: 5 * time.Second},
		AggregatorUniswap:   {BaseURL: "https://api.uniswap.org", RequestsPerMinute: 30, Timeout: 5 * time.Second},
	}
}

// DefaultSources returns the Ethereum mainnet venue catalogue.
// Priority breaks ties between equal quotes; lower wins.
func DefaultSources() []SourceConfig {
	mainnet := []uint64{1}

	return []SourceConfig{
		{
			Name: "uniswap-v2", Protocol: "uniswap", Model: ModelConstantProduct, Chains: mainnet, Priority: 10,
			FeeBps:  30,
			Factory: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f",
			Router:  "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
		},
		{
			Name: "sushiswap", Protocol: "sushiswap", Model: ModelConstantProduct, Chains: mainnet, Priority: 20,
			FeeBps:  30,
			Factory: "0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac",
			Router:  "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F",
		},
		{
			Name: "pancakeswap-v2", Protocol: "pancakeswap", Model: ModelConstantProduct, Chains: mainnet, Priority: 30,
			FeeBps:  25,
			Factory: "0x1097053Fd2ea711dad45caCcc45EfF7548fCB362",
			Router:  "0xEfF92A263d31888d860bD50809A8D171709b7b1c",
		},
		{
			Name: "uniswap-v3", Protocol: "uniswap", Model: ModelConcentrated, Chains: mainnet, Priority: 5,
			FeeTiers: []int64{100, 500, 3000, 10000},
			Factory:  "0x1F98431c8aD98523631AE4a59f267346ea31F984",
			Quoter:   "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
			Router:   "0xE592427A0AEce92De3Edee1F18E0157C05861564",
		},
		{
			Name: "pancakeswap-v3", Protocol: "pancakeswap", Model: ModelConcentrated, Chains: mainnet, Priority: 35,
			FeeTiers: []int64{100, 500, 2500, 10000},
			Factory:  "0x0BFbCF9fa4f9C56B0F40a671Ad40E0805A091865",
			Quoter:   "0xB048Bbc1Ee6b733FFfCFb9e9CeF7375518e25997",
			Router:   "0x13f4EA83D0bd40E75C8222255bc855a974568Dd4",
		},
		{
			Name: "balancer-v2", Protocol: "balancer", Model: ModelWeighted, Chains: mainnet, Priority: 40,
			Vault: "0xBA12222222228d8Ba445958a75a0704d566BF2C8",
			Pools: []PoolConfig{
				{Name: "B-80BAL-20WETH", ID: "0x5c6ee304399dbdb9c8ef030ab642b10820db8f56000200000000000000000014", Tokens: []string{"BAL", "WETH"}},
				{Name: "WETH-USDC 50/50", ID: "0x96646936b91d6b9d7d0c47c496afbf3d6ec7b6f8000200000000000000000019", Tokens: []string{"USDC", "WETH"}},
				{Name: "WETH-DAI 60/40", ID: "0x0b09dea16768f0799065c475be02919503cb2a3500020000000000000000001a", Tokens: []string{"DAI", "WETH"}},
			},
		},
		{
			Name: "curve", Protocol: "curve", Model: ModelStableSwap, Chains: mainnet, Priority: 15,
			Pools: []PoolConfig{
				{Name: "3pool", Address: "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7", Tokens: []string{"DAI", "USDC", "USDT"}, IndexType: "int128"},
				{Name: "tricrypto2", Address: "0xD51a44d3FaE010294C616388b506AcdA1bfAAE46", Tokens: []string{"USDT", "WBTC", "WETH"}, IndexType: "uint256"},
			},
		},
		{
			Name: "kyberswap", Protocol: "kyberswap", Model: ModelAggregator, Aggregator: AggregatorKyberSwap, Priority: 50,
			Chains: []uint64{1, 56, 137, 42161, 10, 43114, 250, 25, 1313161554, 1101, 8453, 59144, 324},
		},
		{
			Name: "1inch", Protocol: "1inch", Model: ModelAggregator, Aggregator: AggregatorOneInch, Priority: 51,
			Chains: []uint64{1, 56, 137, 10, 42161, 100, 43114, 250},
		},
		{
			Name: "0x", Protocol: "0x", Model: ModelAggregator, Aggregator: AggregatorZeroX, Priority: 52,
			Chains: []uint64{1, 56, 137, 42161, 10, 43114, 42220, 250},
		},
		{
			Name: "uniswap-routing", Protocol: "uniswap", Model: ModelAggregator, Aggregator: AggregatorUniswap, Priority: 53,
			Chains: []uint64{1, 10, 56, 137, 8453, 42161, 43114},
		},
	}
}

// DefaultSimulation returns the canned quotes served when every live source fails.
func DefaultSimulation() []SimulationEntry {
	zeroXRoute := []RouteSplitConfig{{Venue: "Uniswap_V3", Proportion: "0.8"}, {Venue: "Sushiswap", Proportion: "0.2"}}

	return []SimulationEntry{
		{TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1", AmountOut: "2000", GasEstimate: 150000, PriceImpactPct: "0.05"},
		{TokenIn: "USDC", TokenOut: "WETH", AmountIn: "1000", AmountOut: "0.5", GasEstimate: 150000, PriceImpactPct: "0.05"},
		{TokenIn: "WETH", TokenOut: "DAI", AmountIn: "1", AmountOut: "2000", GasEstimate: 150000, PriceImpactPct: "0.05"},
		{TokenIn: "USDC", TokenOut: "DAI", AmountIn: "1000", AmountOut: "999.5", GasEstimate: 180000, PriceImpactPct: "0.05"},
		{TokenIn: "DAI", TokenOut: "USDC", AmountIn: "1000", AmountOut: "999.5", GasEstimate: 180000},
		{TokenIn: "USDC", TokenOut: "USDT", AmountIn: "1000", AmountOut: "999.8", GasEstimate: 180000},
		{TokenIn: "USDT", TokenOut: "DAI", AmountIn: "1000", AmountOut: "999.2", GasEstimate: 180000},
		{TokenIn: "DAI", TokenOut: "USDT", AmountIn: "1000", AmountOut: "999.0", GasEstimate: 180000},
		{TokenIn: "USDT", TokenOut: "WBTC", AmountIn: "10000", AmountOut: "0.3745", GasEstimate: 200000},
		{TokenIn: "WBTC", TokenOut: "WETH", AmountIn: "1", AmountOut: "15.2", GasEstimate: 200000},
		{TokenIn: "WETH", TokenOut: "USDT", AmountIn: "10", AmountOut: "17500", GasEstimate: 200000},
		{TokenIn: "WETH", TokenOut: "WBTC", AmountIn: "10", AmountOut: "0.6", GasEstimate: 200000},
		{TokenIn: "WETH", TokenOut: "CAKE", AmountIn: "1", AmountOut: "200", GasEstimate: 150000},
		{TokenIn: "WETH", TokenOut: "KNC", AmountIn: "1", AmountOut: "2000", GasEstimate: 150000, PriceImpactPct: "0.05"},
		{Source: "uniswap-v3", TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1", AmountOut: "1995", GasEstimate: 150000},
		{Source: "0x", TokenIn: "WETH", TokenOut: "USDC", AmountIn: "1", AmountOut: "2000", GasEstimate: 150000, PriceImpactPct: "0.05", Route: zeroXRoute},
	}
}
