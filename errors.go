package rsdb

import (
	"errors"
)

var (
	// ErrConnectionClosed is returned by every command once the session is closed,
	// either by Close or after a failure that left the stream unusable.
	ErrConnectionClosed = errors.New("rsdb: connection closed")
)

// InvalidURLError is returned by ParseURL for connection strings it cannot use.
// It is a precondition failure: no connection was attempted.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	if e.Reason == "" {
		return "rsdb: invalid url " + e.URL
	}
	return "rsdb: invalid url " + e.URL + ": " + e.Reason
}

// ShouldCloseConnection returns false - no connection exists yet
func (e *InvalidURLError) ShouldCloseConnection() bool {
	return false
}
