// Package httpclient provides an instrumented HTTP client for the router APIs,
// with OTel tracing and request metrics.
package httpclient

import (
	"maps"
	"net/http"
	"time"
)

const defaultUserAgent = "quote-engine"

// ClientOptions holds configuration for the instrumented HTTP client.
type ClientOptions struct {
	client         *http.Client
	transport      http.RoundTripper
	providerName   string
	requestTimeout time.Duration
	headers        map[string]string
	baseURL        string
}

// ClientOption configures ClientOptions.
type ClientOption func(*ClientOptions)

func newClientOptions(opts ...ClientOption) *ClientOptions {
	o := &ClientOptions{
		providerName:   "default",
		requestTimeout: defaultRequestTimeout,
		headers:        map[string]string{"User-Agent": defaultUserAgent},
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// WithHTTPClient uses c instead of a pooled client. Its transport is still
// wrapped for tracing.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.client = c
	}
}

// WithTransport replaces the pooled transport, e.g. for tests.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *ClientOptions) {
		o.transport = rt
	}
}

// WithProviderName labels metrics and spans, usually with the router name.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) {
		if name != "" {
			o.providerName = name
		}
	}
}

// WithRequestTimeout bounds each request. Non-positive values keep the default.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if timeout > 0 {
			o.requestTimeout = timeout
		}
	}
}

// WithHeaders adds default headers. Repeated calls merge; later keys win.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		maps.Copy(o.headers, headers)
	}
}

// WithBaseURL sets the URL relative paths are resolved against.
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.baseURL = url
	}
}

// RequestOptions holds per-request configuration.
type RequestOptions struct {
	responseErrorHandler ResponseErrorHandler
	labels               []*Label
	excludeHeaders       []string
	enableLogHeaders     bool
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

func newRequestOptions(opts ...RequestOption) *RequestOptions {
	o := &RequestOptions{}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// ResponseErrorHandler maps a response to an error; nil means success.
// It sees every response, including 2xx.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler sets the status mapping for the request.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *RequestOptions) {
		o.responseErrorHandler = handler
	}
}

// Label is an extra metric attribute.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a Label.
func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

// WithLabels adds metric attributes to the request.
func WithLabels(labels ...*Label) RequestOption {
	return func(o *RequestOptions) {
		o.labels = append(o.labels, labels...)
	}
}

// WithHeadersLogConfig records request headers on the span, masking the
// excluded ones (case-insensitive).
func WithHeadersLogConfig(enable bool, exclude ...string) RequestOption {
	return func(o *RequestOptions) {
		o.enableLogHeaders = enable
		o.excludeHeaders = exclude
	}
}
