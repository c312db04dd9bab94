package rsdb

import (
	"sync/atomic"

	"github.com/pior/rsdb/wire"
)

// SessionStats contains statistics about a session.
// All fields are safe for concurrent access.
//
// For Prometheus integration, expose these as:
//   - Counters: Commands, Reads, Writes, Deletes, Ranges (with command label)
//   - Counters: OpErrors, FatalErrors
//   - Counters: BytesWritten, BytesRead
type SessionStats struct {
	Commands     uint64 // Commands sent, whatever the outcome
	Reads        uint64 // Read commands
	Writes       uint64 // Write commands
	Deletes      uint64 // Delete commands
	Ranges       uint64 // Range commands of any direction
	OpErrors     uint64 // ERROR responses from the server
	FatalErrors  uint64 // Failures that closed the session
	BytesWritten uint64 // Frame bytes sent
	BytesRead    uint64 // Frame bytes received
}

// sessionStatsCollector provides internal methods for updating session stats.
// Not exported - sessions update their own stats.
type sessionStatsCollector struct {
	stats SessionStats
}

func newSessionStatsCollector() *sessionStatsCollector {
	return &sessionStatsCollector{}
}

func (c *sessionStatsCollector) recordCommand(cmd wire.CmdType) {
	atomic.AddUint64(&c.stats.Commands, 1)

	switch {
	case cmd == wire.CmdRead:
		atomic.AddUint64(&c.stats.Reads, 1)
	case cmd == wire.CmdWrite:
		atomic.AddUint64(&c.stats.Writes, 1)
	case cmd == wire.CmdDelete:
		atomic.AddUint64(&c.stats.Deletes, 1)
	case cmd.IsRange():
		atomic.AddUint64(&c.stats.Ranges, 1)
	}
}

func (c *sessionStatsCollector) recordOpError() {
	atomic.AddUint64(&c.stats.OpErrors, 1)
}

func (c *sessionStatsCollector) recordFatalError() {
	atomic.AddUint64(&c.stats.FatalErrors, 1)
}

func (c *sessionStatsCollector) recordBytes(written, read int64) {
	atomic.AddUint64(&c.stats.BytesWritten, uint64(written))
	atomic.AddUint64(&c.stats.BytesRead, uint64(read))
}

func (c *sessionStatsCollector) snapshot() SessionStats {
	return SessionStats{
		Commands:     atomic.LoadUint64(&c.stats.Commands),
		Reads:        atomic.LoadUint64(&c.stats.Reads),
		Writes:       atomic.LoadUint64(&c.stats.Writes),
		Deletes:      atomic.LoadUint64(&c.stats.Deletes),
		Ranges:       atomic.LoadUint64(&c.stats.Ranges),
		OpErrors:     atomic.LoadUint64(&c.stats.OpErrors),
		FatalErrors:  atomic.LoadUint64(&c.stats.FatalErrors),
		BytesWritten: atomic.LoadUint64(&c.stats.BytesWritten),
		BytesRead:    atomic.LoadUint64(&c.stats.BytesRead),
	}
}
