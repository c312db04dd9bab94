package rsdb

import (
	"log/slog"
	"net"

	"github.com/sony/gobreaker/v2"
)

// Config holds the settings used by Open and Connector.
// The zero value of every optional field selects a default.
type Config struct {
	// Addr is the host:port of the server.
	// Required.
	Addr string

	// DB is selected with a use command right after connecting.
	// Empty means no database is selected.
	DB string

	// Dialer is the net.Dialer used to create the connection.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Logger receives connection lifecycle and failure events.
	// If nil, logs are discarded.
	Logger *slog.Logger

	// MaxTokenLength bounds the size of a single token read from the server.
	// Zero means wire.DefaultMaxTokenLength.
	MaxTokenLength uint32

	// NewCircuitBreaker creates the circuit breaker used by Connector.
	// Called once per Connector with the server address.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[*Session]
}

// Option adjusts a Config. Options are accepted by Dial and NewSession.
type Option func(*Config)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithDialer sets the dialer used by Dial.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Config) {
		c.Dialer = dialer
	}
}

// WithDB overrides the database named in the connection string.
func WithDB(name string) Option {
	return func(c *Config) {
		c.DB = name
	}
}

// WithMaxTokenLength bounds the size of tokens accepted from the server.
func WithMaxTokenLength(n uint32) Option {
	return func(c *Config) {
		c.MaxTokenLength = n
	}
}

// WithCircuitBreaker sets the circuit breaker factory used by Connector.
func WithCircuitBreaker(f func(addr string) *gobreaker.CircuitBreaker[*Session]) Option {
	return func(c *Config) {
		c.NewCircuitBreaker = f
	}
}

func (c *Config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Config) dialer() *net.Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return &net.Dialer{}
}

// ConfigFromURL parses rawURL and returns the matching Config with opts applied.
func ConfigFromURL(rawURL string, opts ...Option) (Config, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Addr: u.Addr(), DB: u.DBName}
	cfg.apply(opts)
	return cfg, nil
}
