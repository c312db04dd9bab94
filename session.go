package rsdb

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pior/rsdb/internal/coarsetime"
	"github.com/pior/rsdb/wire"
)

// Session is a connection to an rsdb server and the database selected on it.
//
// Each command is one synchronous round trip: the request is written and
// flushed, then exactly one response is read. A mutex serializes round trips,
// so a Session can be shared between goroutines, but commands never overlap on
// the wire.
//
// A failure that leaves the stream in an unknown state (I/O error, framing
// error) closes the session. Every later command returns ErrConnectionClosed.
type Session struct {
	addr   string
	conn   net.Conn
	reader *wire.Reader
	writer *wire.Writer
	logger *slog.Logger
	stats  *sessionStatsCollector

	mu       sync.Mutex
	db       string
	closed   bool
	lastUsed time.Time
}

// Open dials cfg.Addr and returns a session on the new connection.
// When cfg.DB is set it is selected before Open returns; a failure to select
// it closes the connection.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Addr == "" {
		return nil, &wire.InvalidArgumentError{Message: "address is required"}
	}

	conn, err := cfg.dialer().DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	s := newSession(conn, cfg)
	s.logger.Debug("rsdb session opened")

	if cfg.DB != "" {
		if _, err := s.Use(ctx, cfg.DB); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Dial parses rawURL and opens a session on it. The database named in the
// URL path, if any, is selected.
//
//	s, err := rsdb.Dial(ctx, "rsdb://@localhost/gdb")
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Session, error) {
	cfg, err := ConfigFromURL(rawURL, opts...)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg)
}

// NewSession returns a session on an established connection. The session
// owns conn from now on. No database is selected; Config.DB and the dialing
// options are ignored.
func NewSession(conn net.Conn, opts ...Option) *Session {
	var cfg Config
	cfg.apply(opts)
	if cfg.Addr == "" && conn.RemoteAddr() != nil {
		cfg.Addr = conn.RemoteAddr().String()
	}
	return newSession(conn, cfg)
}

func newSession(conn net.Conn, cfg Config) *Session {
	reader := wire.NewReader(conn)
	if cfg.MaxTokenLength > 0 {
		reader.MaxTokenLength = cfg.MaxTokenLength
	}

	return &Session{
		addr:     cfg.Addr,
		conn:     conn,
		reader:   reader,
		writer:   wire.NewWriter(conn),
		logger:   cfg.logger().With("addr", cfg.Addr),
		stats:    newSessionStatsCollector(),
		lastUsed: coarsetime.Now(),
	}
}

// Do runs one command/response cycle.
//
// An ERROR response is returned as a *wire.OpError and leaves the session
// usable. A request that fails validation returns a *wire.InvalidArgumentError
// before anything is written. Any other error closes the session.
func (s *Session) Do(ctx context.Context, req *wire.Request) (wire.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrConnectionClosed
	}

	resp, err := s.roundTrip(ctx, req)
	if err != nil {
		if wire.ShouldCloseConnection(err) {
			s.stats.recordFatalError()
			s.logger.Warn("rsdb session failed, closing", "db", s.db, "cmd", req.Command.String(), "error", err)
			s.closeLocked()
		}
		return nil, err
	}

	if errResp, ok := resp.(*wire.ErrorResponse); ok {
		s.stats.recordOpError()
		return nil, errResp.Err()
	}

	s.track(req, resp)
	return resp, nil
}

// roundTrip writes req and reads its response (must be called with lock held).
func (s *Session) roundTrip(ctx context.Context, req *wire.Request) (wire.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Set deadline based on context
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetDeadline(deadline)
	} else {
		_ = s.conn.SetDeadline(time.Time{})
	}

	written, read := s.writer.Written(), s.reader.BytesRead()
	defer func() {
		s.stats.recordBytes(s.writer.Written()-written, s.reader.BytesRead()-read)
	}()

	s.stats.recordCommand(req.Command)
	s.lastUsed = coarsetime.Now()

	if err := wire.WriteRequest(s.writer, req); err != nil {
		return nil, err
	}
	return wire.ReadResponse(s.reader)
}

// track updates the selected database from a successful reply
// (must be called with lock held).
func (s *Session) track(req *wire.Request, resp wire.Response) {
	switch req.Command {
	case wire.CmdUse:
		if _, ok := resp.(*wire.OKResponse); ok {
			s.db = string(req.Tokens[0])
			s.logger.Debug("rsdb database selected", "db", s.db)
		}
	case wire.CmdDetach:
		if _, ok := resp.(*wire.OKResponse); ok && s.db == string(req.Tokens[0]) {
			s.logger.Debug("rsdb database detached", "db", s.db)
			s.db = ""
		}
	case wire.CmdCurrentDB:
		if tok, ok := resp.(*wire.TokenResponse); ok {
			s.db = string(tok.Value)
		}
	}
}

// DB returns the name of the selected database, or "" when none is selected.
func (s *Session) DB() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Addr returns the server address.
func (s *Session) Addr() string {
	return s.addr
}

// Stats returns a snapshot of the session statistics.
func (s *Session) Stats() SessionStats {
	return s.stats.snapshot()
}

// LastUsed returns when the session last sent a command.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// IdleTime returns how long the session has been unused.
func (s *Session) IdleTime() time.Duration {
	return coarsetime.Since(s.LastUsed())
}

// IsClosed returns whether the session is closed
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close closes the session and its connection. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return s.closeLocked()
}

// closeLocked marks the session closed and releases the connection
// (must be called with lock held).
func (s *Session) closeLocked() error {
	s.closed = true
	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	s.logger.Debug("rsdb session closed", "db", s.db)
	return err
}
