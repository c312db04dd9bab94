package rsdb

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/rsdb/internal/testutils"
)

// unusedAddr returns the address of a listener that has been closed.
func unusedAddr(t *testing.T) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func TestConnector_WithoutCircuitBreaker(t *testing.T) {
	srv := testutils.NewServer(t)

	c := NewConnector(Config{Addr: srv.Addr(), DB: "gdb"})
	assert.Equal(t, gobreaker.StateClosed, c.State())

	s, err := c.Connect(context.Background())
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "gdb", s.DB())
}

func TestConnector_OpensAfterFailures(t *testing.T) {
	c := NewConnector(Config{
		Addr:              unusedAddr(t),
		Dialer:            &net.Dialer{Timeout: time.Second},
		NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute),
	})
	ctx := context.Background()

	for range 3 {
		_, err := c.Connect(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.Connect(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestConnector_HalfOpenRecovers(t *testing.T) {
	srv := testutils.NewServer(t)

	settings := gobreaker.Settings{
		Name:        "test",
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	}
	cfg := Config{Addr: unusedAddr(t)}
	cfg.NewCircuitBreaker = func(string) *gobreaker.CircuitBreaker[*Session] {
		return gobreaker.NewCircuitBreaker[*Session](settings)
	}

	c := NewConnector(cfg)
	ctx := context.Background()

	_, err := c.Connect(ctx)
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, c.State())

	// Point the connector at a live server and wait for the breaker timeout
	c.cfg.Addr = srv.Addr()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, c.State())

	s, err := c.Connect(ctx)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestConnector_SuccessKeepsBreakerClosed(t *testing.T) {
	srv := testutils.NewServer(t)

	c := NewConnector(Config{
		Addr:              srv.Addr(),
		DB:                "gdb",
		NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute),
	})

	s, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, gobreaker.StateClosed, c.State())
}
