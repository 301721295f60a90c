// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Pricing models a source may declare.
const (
	ModelConstantProduct = "constant_product"
	ModelWeighted        = "weighted"
	ModelStableSwap      = "stable_swap"
	ModelConcentrated    = "concentrated"
	ModelAggregator      = "aggregator"
)

// Config holds all application configuration.
type Config struct {
	App          AppConfig                   `mapstructure:"app"`
	Ethereum     EthereumConfig              `mapstructure:"ethereum"`
	Server       ServerConfig                `mapstructure:"server"`
	Health       HealthConfig                `mapstructure:"health"`
	Orchestrator OrchestratorConfig          `mapstructure:"orchestrator"`
	Tokens       []TokenConfig               `mapstructure:"tokens"`
	Sources      []SourceConfig              `mapstructure:"sources"`
	Aggregators  map[string]AggregatorConfig `mapstructure:"aggregators"`
	Simulation   []SimulationEntry           `mapstructure:"simulation"`
	Journal      JournalConfig               `mapstructure:"journal"`
	Telemetry    TelemetryConfig             `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds the RPC endpoint used for venue state reads.
// An empty HTTPURL disables on-chain sources; aggregators and simulation still work.
type EthereumConfig struct {
	HTTPURL     string        `mapstructure:"http_url"`
	ChainID     uint64        `mapstructure:"chain_id"`
	GasCacheTTL time.Duration `mapstructure:"gas_cache_ttl"`
	MaxGasGwei  int64         `mapstructure:"max_gas_gwei"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	StreamInterval time.Duration `mapstructure:"stream_interval"`
}

// HealthConfig holds the health probe server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// OrchestratorConfig controls fan-out and fallback behaviour.
type OrchestratorConfig struct {
	SourceTimeout      time.Duration `mapstructure:"source_timeout"`
	Strict             bool          `mapstructure:"strict"`
	DefaultSlippageBps int64         `mapstructure:"default_slippage_bps"`
	DefaultDeadline    time.Duration `mapstructure:"default_deadline"`
	DisplayDecimals    int32         `mapstructure:"display_decimals"`
}

// TokenConfig registers a token beyond the built-in mainnet table.
type TokenConfig struct {
	ChainID  uint64 `mapstructure:"chain_id"`
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// PoolConfig names one pool a source may price through.
// ID is a Balancer pool id; Address is a Curve pool; Tokens lists symbols in pool order.
// IndexType selects the Curve coin index ABI: int128 (default) or uint256.
type PoolConfig struct {
	ID        string   `mapstructure:"id"`
	Address   string   `mapstructure:"address"`
	Name      string   `mapstructure:"name"`
	Tokens    []string `mapstructure:"tokens"`
	IndexType string   `mapstructure:"index_type"`
}

// SourceConfig describes one liquidity venue.
type SourceConfig struct {
	Name       string       `mapstructure:"name"`
	Protocol   string       `mapstructure:"protocol"`
	Model      string       `mapstructure:"model"`
	Chains     []uint64     `mapstructure:"chains"`
	Priority   int          `mapstructure:"priority"`
	Disabled   bool         `mapstructure:"disabled"`
	FeeBps     int64        `mapstructure:"fee_bps"`
	FeeTiers   []int64      `mapstructure:"fee_tiers"`
	Factory    string       `mapstructure:"factory"`
	Router     string       `mapstructure:"router"`
	Quoter     string       `mapstructure:"quoter"`
	Vault      string       `mapstructure:"vault"`
	Pools      []PoolConfig `mapstructure:"pools"`
	Aggregator string       `mapstructure:"aggregator"`
}

// AggregatorConfig holds one off-chain router's HTTP settings.
type AggregatorConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Enabled           *bool         `mapstructure:"enabled"`
}

// IsEnabled reports whether the router should be queried. Unset means enabled.
func (a AggregatorConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// RouteSplitConfig is one venue share of a canned route.
type RouteSplitConfig struct {
	Venue      string `mapstructure:"venue"`
	Proportion string `mapstructure:"proportion"`
}

// SimulationEntry is one canned fallback quote. Amounts are human decimals.
type SimulationEntry struct {
	Source         string             `mapstructure:"source"`
	ChainID        uint64             `mapstructure:"chain_id"`
	TokenIn        string             `mapstructure:"token_in"`
	TokenOut       string             `mapstructure:"token_out"`
	AmountIn       string             `mapstructure:"amount_in"`
	AmountOut      string             `mapstructure:"amount_out"`
	GasEstimate    uint64             `mapstructure:"gas_estimate"`
	PriceImpactPct string             `mapstructure:"price_impact_pct"`
	Route          []RouteSplitConfig `mapstructure:"route"`
}

// JournalConfig enables the Postgres quote journal when DatabaseURL is set.
type JournalConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Option customises Load.
type Option func(v *viper.Viper) error

// WithFlags binds command-line flags over file and env values.
// Flag names map to keys with the given table, e.g. "log-level" -> "app.log_level".
func WithFlags(fs *pflag.FlagSet, keys map[string]string) Option {
	return func(v *viper.Viper) error {
		for flag, key := range keys {
			f := fs.Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
		return nil
	}
}

// Load loads configuration from file, environment variables and flags.
func Load(configPath string, opts ...Option) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("QE")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyCatalogDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	_ = v.BindEnv("app.name", "QE_APP_NAME", "SERVICE_NAME")
	_ = v.BindEnv("app.environment", "QE_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "QE_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	_ = v.BindEnv("ethereum.http_url", "QE_ETH_HTTP_URL", "ETH_HTTP_URL", "RPC_URL")
	_ = v.BindEnv("ethereum.chain_id", "QE_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Orchestrator
	_ = v.BindEnv("orchestrator.source_timeout", "QE_SOURCE_TIMEOUT")
	_ = v.BindEnv("orchestrator.strict", "QE_STRICT")

	// Aggregator credentials
	_ = v.BindEnv("aggregators.1inch.api_key", "QE_ONEINCH_API_KEY", "ONEINCH_API_KEY")
	_ = v.BindEnv("aggregators.0x.api_key", "QE_ZEROX_API_KEY", "ZEROX_API_KEY")
	_ = v.BindEnv("aggregators.kyberswap.api_key", "QE_KYBER_CLIENT_ID")

	// Journal
	_ = v.BindEnv("journal.database_url", "QE_DATABASE_URL", "DATABASE_URL")

	// Telemetry
	_ = v.BindEnv("telemetry.enabled", "QE_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "QE_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "QE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "quote-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.gas_cache_ttl", "12s")
	v.SetDefault("ethereum.max_gas_gwei", 500)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.stream_interval", "12s")

	v.SetDefault("health.port", 8081)

	v.SetDefault("orchestrator.source_timeout", "3s")
	v.SetDefault("orchestrator.strict", false)
	v.SetDefault("orchestrator.default_slippage_bps", 50)
	v.SetDefault("orchestrator.default_deadline", "20m")
	v.SetDefault("orchestrator.display_decimals", 6)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "quote-engine")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// applyCatalogDefaults fills list sections left empty by file and env.
func (c *Config) applyCatalogDefaults() {
	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	if len(c.Simulation) == 0 {
		c.Simulation = DefaultSimulation()
	}
	defaults := DefaultAggregators()
	if c.Aggregators == nil {
		c.Aggregators = make(map[string]AggregatorConfig, len(defaults))
	}
	for name, d := range defaults {
		cur := c.Aggregators[name]
		if cur.BaseURL == "" {
			cur.BaseURL = d.BaseURL
		}
		if cur.RequestsPerMinute == 0 {
			cur.RequestsPerMinute = d.RequestsPerMinute
		}
		if cur.Timeout == 0 {
			cur.Timeout = d.Timeout
		}
		c.Aggregators[name] = cur
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Orchestrator.SourceTimeout <= 0 {
		return fmt.Errorf("orchestrator.source_timeout must be positive")
	}
	if c.Orchestrator.DefaultSlippageBps < 0 || c.Orchestrator.DefaultSlippageBps > 10_000 {
		return fmt.Errorf("orchestrator.default_slippage_bps out of range: %d", c.Orchestrator.DefaultSlippageBps)
	}

	for i, t := range c.Tokens {
		if t.Symbol == "" || !common.IsHexAddress(t.Address) {
			return fmt.Errorf("tokens[%d]: symbol and a hex address are required", i)
		}
		if t.Decimals > 30 {
			return fmt.Errorf("tokens[%d]: decimals %d out of range", i, t.Decimals)
		}
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if err := s.validate(c.Aggregators); err != nil {
			return fmt.Errorf("sources[%d] %q: %w", i, s.Name, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}

	for i, e := range c.Simulation {
		if e.TokenIn == "" || e.TokenOut == "" {
			return fmt.Errorf("simulation[%d]: token_in and token_out are required", i)
		}
		for _, amt := range []string{e.AmountIn, e.AmountOut} {
			d, err := decimal.NewFromString(amt)
			if err != nil || !d.IsPositive() {
				return fmt.Errorf("simulation[%d]: invalid amount %q", i, amt)
			}
		}
	}
	return nil
}

func (s SourceConfig) validate(aggs map[string]AggregatorConfig) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Chains) == 0 {
		return fmt.Errorf("at least one chain is required")
	}

	addrs := map[string]string{"factory": s.Factory, "router": s.Router, "quoter": s.Quoter, "vault": s.Vault}
	for field, a := range addrs {
		if a != "" && !common.IsHexAddress(a) {
			return fmt.Errorf("invalid %s address %q", field, a)
		}
	}

	switch s.Model {
	case ModelConstantProduct:
		if s.Factory == "" {
			return fmt.Errorf("constant_product requires factory")
		}
		if s.FeeBps < 0 || s.FeeBps >= 10_000 {
			return fmt.Errorf("fee_bps out of range: %d", s.FeeBps)
		}
	case ModelWeighted:
		if s.Vault == "" || len(s.Pools) == 0 {
			return fmt.Errorf("weighted requires vault and pools")
		}
	case ModelStableSwap:
		if len(s.Pools) == 0 {
			return fmt.Errorf("stable_swap requires pools")
		}
		for _, p := range s.Pools {
			if !common.IsHexAddress(p.Address) {
				return fmt.Errorf("invalid pool address %q", p.Address)
			}
			if p.IndexType != "" && p.IndexType != "int128" && p.IndexType != "uint256" {
				return fmt.Errorf("pool %s: index_type must be int128 or uint256", p.Address)
			}
		}
	case ModelConcentrated:
		if s.Quoter == "" || s.Factory == "" {
			return fmt.Errorf("concentrated requires quoter and factory")
		}
	case ModelAggregator:
		if _, ok := aggs[s.Aggregator]; !ok {
			return fmt.Errorf("unknown aggregator %q", s.Aggregator)
		}
	default:
		return fmt.Errorf("unknown model %q", s.Model)
	}
	return nil
}

