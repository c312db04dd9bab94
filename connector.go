package rsdb

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Connector opens sessions for one Config. When the config carries a circuit
// breaker factory, failed dials and failed database selections trip the
// breaker and later Connect calls fail fast with gobreaker.ErrOpenState until
// it half-opens. Connector never retries.
type Connector struct {
	cfg            Config
	circuitBreaker *gobreaker.CircuitBreaker[*Session] // nil if not configured
}

// NewConnector returns a Connector for cfg.
func NewConnector(cfg Config) *Connector {
	c := &Connector{cfg: cfg}
	if cfg.NewCircuitBreaker != nil {
		c.circuitBreaker = cfg.NewCircuitBreaker(cfg.Addr)
	}
	return c
}

// Connect opens a new session.
func (c *Connector) Connect(ctx context.Context) (*Session, error) {
	if c.circuitBreaker == nil {
		return Open(ctx, c.cfg)
	}
	return c.circuitBreaker.Execute(func() (*Session, error) {
		return Open(ctx, c.cfg)
	})
}

// State returns the circuit breaker state, StateClosed when no breaker is
// configured.
func (c *Connector) State() gobreaker.State {
	if c.circuitBreaker == nil {
		return gobreaker.StateClosed
	}
	return c.circuitBreaker.State()
}

// NewCircuitBreakerConfig returns a factory for circuit breakers that trip when
// at least 3 connection attempts were made and 60% of them failed.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[*Session] {
	return func(addr string) *gobreaker.CircuitBreaker[*Session] {
		settings := gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[*Session](settings)
	}
}
