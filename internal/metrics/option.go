package metrics

// Provider names a metric reader.
type Provider string

const (
	// PrometheusProvider exposes metrics for scraping on /metrics.
	PrometheusProvider Provider = "prometheus"
	// OtelCollector pushes metrics over OTLP gRPC.
	OtelCollector Provider = "customOtelCollector"

	InsecureOtel = true
	SecureOtel   = false

	defaultPromPort = 9090
)

// NewOtelCollectorConfig pushes metrics over OTLP gRPC to url.
func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

// Config is the meter provider setup built from OptionFns.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

// ProviderCfg configures one reader.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

type OptionFn func(config Config) Config

// WithProviderConfig adds a reader. Readers are independent; all receive every metric.
func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// PromServerConfig configures the scrape endpoint.
type PromServerConfig struct {
	port int
}

type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort sets the scrape port. Zero keeps the default.
func WithPort(port int) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		if port > 0 {
			config.port = port
		}
		return config
	}
}
