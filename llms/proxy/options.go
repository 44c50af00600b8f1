package proxy

import (
	"net/http"
	"os"
	"time"

	"github.com/tmc/langchaingo/callbacks"

	"github.com/smallnest/langfix/schema"
)

const (
	// DefaultBaseURL is the OpenAI-compatible proxy endpoint used when none is set.
	DefaultBaseURL = "https://api.gptsapi.net/v1"

	// DefaultModel is the chat model used when none is set.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTimeout bounds each HTTP request when no client is supplied.
	DefaultTimeout = 15 * time.Second

	// APIKeyEnv is read when no API key option is given.
	APIKeyEnv = "GPTSAPI_API_KEY"
)

type options struct {
	apiKey           string
	baseURL          string
	model            string
	temperature      float64
	timeout          time.Duration
	httpClient       *http.Client
	callbacksHandler callbacks.Handler
	responseSchema   *schema.Schema
}

// Option is a function that configures an LLM.
type Option func(*options)

// WithAPIKey sets the API key. Defaults to $GPTSAPI_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = apiKey
	}
}

// WithBaseURL sets the base URL of the OpenAI-compatible API.
// Default is "https://api.gptsapi.net/v1".
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithTemperature sets the default sampling temperature. A temperature passed
// as a call option takes precedence.
func WithTemperature(t float64) Option {
	return func(opts *options) {
		opts.temperature = t
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.timeout = d
	}
}

// WithHTTPClient sets the HTTP client. WithTimeout is ignored when set.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithCallbacks sets the callbacks handler for the LLM.
func WithCallbacks(handler callbacks.Handler) Option {
	return func(opts *options) {
		opts.callbacksHandler = handler
	}
}

// WithJSONSchema asks the endpoint for structured output matching s through
// the json_schema response format. Endpoints without support for it usually
// reject the request.
func WithJSONSchema(s *schema.Schema) Option {
	return func(opts *options) {
		opts.responseSchema = s
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
