// Package wire provides a low-level implementation of the rsdb binary
// protocol.
//
// The package is the foundation of the rsdb Session. It focuses on exact
// framing and does not manage connections.
//
// # Frame Layout
//
// All integers are big-endian.
//
//	+-----+-------------+-----------------------------------+
//	| tag | count       | token*                            |
//	| u8  | i16, opt.   | u32 length + length bytes         |
//	+-----+-------------+-----------------------------------+
//
// A token with length 0 is the null token and decodes to a nil slice. There is
// no way to send an empty non-null token: an empty value written by a client
// reads back as null.
//
// # Core Types
//
//   - Request: a command frame (use, write, read, delete, current db, list db,
//     detach, range)
//   - Response: a sealed union of OKResponse, ErrorResponse, TokenResponse,
//     TokensResponse and PairsResponse
//   - Writer / Reader: field-level encoding on a buffered stream
//
// # Serialization and Parsing
//
// WriteRequest serializes a request and flushes it:
//
//	w := wire.NewWriter(conn)
//	err := wire.WriteRequest(w, wire.NewReadRequest([]byte("key1"), []byte("key2")))
//
// ReadResponse parses exactly one response:
//
//	resp, err := wire.ReadResponse(wire.NewReader(conn))
//	if err != nil {
//	    conn.Close() // framing or I/O failure, the stream is unusable
//	    return err
//	}
//	switch r := resp.(type) {
//	case *wire.TokensResponse:
//	    // r.Values is parallel to the requested keys, nil for missing keys
//	case *wire.ErrorResponse:
//	    return r.Err()
//	}
//
// The server side is symmetric: ReadRequest and WriteResponse.
//
// # Flushing
//
// Writer methods take a last flag. Fields written with last=false may stay in
// the buffer; the field written with last=true flushes the whole command.
// WriteRequest marks the final field of every command.
//
// # Error Handling
//
//   - OpError: ERROR response from the server, connection can be REUSED
//   - InvalidArgumentError: rejected before any I/O, connection can be REUSED
//   - UnexpectedResponseError: well-formed reply of the wrong kind, REUSE
//   - FrameError: short read, unknown tag, bad count; CLOSE connection
//   - ConnectionError: network/I/O error, connection already broken
//
// Use ShouldCloseConnection to choose between the two.
//
// # Constants
//
// Tags form a versioned registry (ProtocolVersion). Renumbering a tag is a
// breaking protocol change.
package wire
