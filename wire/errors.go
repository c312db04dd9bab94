package wire

import (
	"errors"
	"fmt"
)

// Error types for rsdb protocol operations.
// They tell the caller whether the connection can still be used after the
// failure (application and precondition errors) or must be closed (I/O and
// framing errors).

var (
	// ErrShortRead is wrapped by FrameError when the stream ended in the middle of a frame.
	ErrShortRead = errors.New("rsdb: short read")

	// ErrUnknownResponse is wrapped by FrameError when a response tag is not registered.
	ErrUnknownResponse = errors.New("rsdb: unknown response")

	// ErrUnknownCommand is wrapped by FrameError when a command tag is not registered.
	ErrUnknownCommand = errors.New("rsdb: unknown command")
)

// OpError is a well-formed ERROR response from the server.
// The message is server supplied.
//
// Connection handling: connection can be REUSED
type OpError struct {
	Message string
}

func (e *OpError) Error() string {
	return "rsdb: operation failed: " + e.Message
}

// ShouldCloseConnection returns false - the frame was read completely
func (e *OpError) ShouldCloseConnection() bool {
	return false
}

// InvalidArgumentError is returned when the caller supplies input that cannot
// be encoded: empty key sets, unsupported argument types, counts that overflow
// the size field. Nothing has been written to the stream.
//
// Connection handling: connection is still valid
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return "rsdb: invalid argument: " + e.Message
}

// ShouldCloseConnection returns false - the request was rejected before any I/O
func (e *InvalidArgumentError) ShouldCloseConnection() bool {
	return false
}

// FrameError reports a framing failure: a short read, an unknown tag, a
// negative count or an oversized token. Client and server are out of sync.
//
// Connection handling: connection MUST be CLOSED
type FrameError struct {
	Message string
	Err     error // Underlying error, if any
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return "rsdb: frame error: " + e.Message + ": " + e.Err.Error()
	}
	return "rsdb: frame error: " + e.Message
}

// Unwrap returns the underlying error for error chain inspection
func (e *FrameError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the stream position is unknown
func (e *FrameError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps I/O errors from the underlying stream.
//
// Common causes:
//   - Peer closed the connection between frames
//   - Network timeout (context deadline)
//   - Connection reset
//
// Connection handling: connection is already broken, CLOSE it
type ConnectionError struct {
	Op  string // Operation that failed (read, write, flush)
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rsdb: connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// UnexpectedResponseError is returned by typed helpers when the server answered
// with a well-formed response of another kind than the command expects.
type UnexpectedResponseError struct {
	Got RespType
}

func (e *UnexpectedResponseError) Error() string {
	return "rsdb: unexpected response " + e.Got.String()
}

// ShouldCloseConnection returns false - the frame was consumed entirely
func (e *UnexpectedResponseError) ShouldCloseConnection() bool {
	return false
}

// ErrorWithConnectionState is implemented by all protocol error types.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
//
// Returns true for:
//   - FrameError
//   - ConnectionError
//   - any error that does not implement ErrorWithConnectionState
//
// Returns false for:
//   - OpError
//   - InvalidArgumentError
//   - UnexpectedResponseError
//   - nil
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Unknown error type - be conservative and close connection
	return true
}
