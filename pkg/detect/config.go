package detect

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-snapdetect/internal/log"
)

// DefaultEndpoint is the local detection service.
const DefaultEndpoint = "http://127.0.0.1:8000/detect"

// MaxResponseBytes bounds how much of a response body is read.
const MaxResponseBytes = 8 << 20

// Config holds client configuration.
type Config struct {
	Endpoint  string        // URL that receives the POST
	HealthURL string        // Health probe URL; derived from Endpoint when empty
	Timeout   time.Duration // Whole-request timeout; zero leaves transport defaults
	HTTP      *http.Client  // Overrides the client built from Timeout
	Logger    *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithEndpoint sets the detection URL.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithHealthURL sets the health probe URL.
func WithHealthURL(url string) Option {
	return func(c *Config) { c.HealthURL = url }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Config) { c.HTTP = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the defaults: local endpoint, no timeout.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Logger:   log.L(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
