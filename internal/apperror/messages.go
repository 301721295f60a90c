package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeInternalError:      "Internal server error",
	CodeUnknownError:       "An unknown error occurred",

	CodeInvalidAmount:    "Amount must be a non-negative decimal within token precision",
	CodeUnknownToken:     "Token is not known on this chain",
	CodeUnsupportedChain: "Chain is not supported",
	CodeInvalidSlippage:  "Slippage must be between 0 and 10000 bps",
	CodeInvalidDeadline:  "Deadline must be positive",
	CodeParseError:       "Cannot parse decimal amount",

	CodeRPCError:          "Venue RPC call failed",
	CodeTimeout:           "Source did not answer in time",
	CodeRateLimited:       "Rate limit exceeded",
	CodeHTTPError:         "Aggregator HTTP request failed",
	CodeCircuitOpen:       "Circuit breaker is open",
	CodeSourceUnavailable: "Liquidity source unavailable",
	CodeConnectionFailed:  "Failed to connect to node",

	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodePoolNotFound:          "Pool not found",
	CodePricingError:          "Pricing computation failed",
	CodeUnsupportedPair:       "Pair is not supported by source",
	CodeNoLiveSource:          "No live source answered",

	CodeJournalWriteFailed: "Failed to record quote",
}
