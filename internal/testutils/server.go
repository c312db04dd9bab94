package testutils

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/pior/rsdb/wire"
)

const (
	replyOK         = "Ok."
	replyNoDB       = "no db selected"
	replyUnknownCmd = "unknown command"
)

// Server is an rsdb server over a Store, listening on a loopback port.
// Each accepted connection is served by its own goroutine and has its own
// selected database.
type Server struct {
	Store *Store

	listener net.Listener
	logger   *slog.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer starts a server and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s, err := StartServer("127.0.0.1:0", slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// StartServer listens on addr and serves connections until Close.
func StartServer(addr string, logger *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Store:    NewStore(),
		listener: listener,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// URL returns a connection string for the server selecting db.
func (s *Server) URL(db string) string {
	u := "rsdb://" + s.Addr()
	if db != "" {
		u += "/" + db
	}
	return u
}

// Close stops accepting, closes every open connection and waits for the
// handlers to return.
func (s *Server) Close() {
	_ = s.listener.Close()

	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)

			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With("peer", conn.RemoteAddr().String())
	logger.Debug("connection accepted")

	r := wire.NewReader(conn)
	w := wire.NewWriter(conn)
	sess := &serverSession{store: s.Store}

	for {
		req, err := wire.ReadRequest(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("closing connection", "error", err)
			}
			return
		}

		if err := wire.WriteResponse(w, sess.handle(req)); err != nil {
			logger.Warn("write failed", "error", err)
			return
		}
	}
}

// serverSession is the per-connection state: the selected database.
type serverSession struct {
	store *Store
	db    *DB
}

func (c *serverSession) handle(req *wire.Request) wire.Response {
	var argErr *wire.InvalidArgumentError
	if err := req.Validate(); errors.As(err, &argErr) {
		return wire.NewErrorResponse(argErr.Message)
	}

	switch req.Command {
	case wire.CmdUse:
		c.db = c.store.Attach(string(req.Tokens[0]))
		return wire.NewOKResponse(replyOK)

	case wire.CmdListDB:
		names := c.store.List()
		values := make([][]byte, len(names))
		for i, name := range names {
			values[i] = []byte(name)
		}
		return wire.NewTokensResponse(values...)

	case wire.CmdDetach:
		name := string(req.Tokens[0])
		if c.db != nil && c.db.Name() == name {
			c.db = nil
		}
		c.store.Detach(name)
		return wire.NewOKResponse(replyOK)
	}

	if c.db == nil {
		return wire.NewErrorResponse(replyNoDB)
	}

	switch req.Command {
	case wire.CmdCurrentDB:
		return wire.NewTokenResponse([]byte(c.db.Name()))

	case wire.CmdWrite:
		for _, p := range req.Pairs() {
			c.db.Set(p.Key, p.Value)
		}
		return wire.NewOKResponse(replyOK)

	case wire.CmdRead:
		values := make([][]byte, len(req.Tokens))
		for i, key := range req.Tokens {
			values[i] = c.db.Get(key)
		}
		return wire.NewTokensResponse(values...)

	case wire.CmdDelete:
		for _, key := range req.Tokens {
			c.db.Delete(key)
		}
		return wire.NewOKResponse(replyOK)

	case wire.CmdRangeBegin:
		return wire.NewPairsResponse(c.db.Range(nil, false, false, int(req.PageSize))...)
	case wire.CmdRangeEnd:
		return wire.NewPairsResponse(c.db.Range(nil, true, false, int(req.PageSize))...)
	case wire.CmdRangeFromAsc:
		return wire.NewPairsResponse(c.db.Range(req.Tokens[0], false, false, int(req.PageSize))...)
	case wire.CmdRangeFromAscEx:
		return wire.NewPairsResponse(c.db.Range(req.Tokens[0], false, true, int(req.PageSize))...)
	case wire.CmdRangeFromDesc:
		return wire.NewPairsResponse(c.db.Range(req.Tokens[0], true, false, int(req.PageSize))...)
	case wire.CmdRangeFromDescEx:
		return wire.NewPairsResponse(c.db.Range(req.Tokens[0], true, true, int(req.PageSize))...)
	}

	return wire.NewErrorResponse(replyUnknownCmd)
}
