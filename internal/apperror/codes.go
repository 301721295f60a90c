package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Caller input errors. These are the only failures a quote request surfaces.
const (
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeUnknownToken     Code = "UNKNOWN_TOKEN"
	CodeUnsupportedChain Code = "UNSUPPORTED_CHAIN"
	CodeInvalidSlippage  Code = "INVALID_SLIPPAGE"
	CodeInvalidDeadline  Code = "INVALID_DEADLINE"
	CodeParseError       Code = "PARSE_ERROR"
)

// Transient source errors. The orchestrator excludes the source and moves on.
const (
	CodeRPCError          Code = "RPC_ERROR"
	CodeTimeout           Code = "TIMEOUT"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeHTTPError         Code = "HTTP_ERROR"
	CodeCircuitOpen       Code = "CIRCUIT_OPEN"
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
	CodeConnectionFailed  Code = "CONNECTION_FAILED"
)

// Structural pricing errors.
const (
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodePricingError          Code = "PRICING_ERROR"
	CodeUnsupportedPair       Code = "UNSUPPORTED_PAIR"
	CodeNoLiveSource          Code = "NO_LIVE_SOURCE"
)

// Persistence
const (
	CodeJournalWriteFailed Code = "JOURNAL_WRITE_FAILED"
)
