package wire

import (
	"fmt"
	"math"
	"strconv"
)

// Request represents a command frame.
// This is a low-level container; WriteRequest serializes it and ReadRequest
// parses it on the server side.
//
// Tokens layout depends on the command:
//   - CmdWrite: flat key, value, key, value, ...
//   - CmdRead, CmdDelete: keys
//   - CmdUse, CmdDetach: the database name
//   - CmdRangeFrom*: the start key
//   - CmdCurrentDB, CmdListDB, CmdRangeBegin, CmdRangeEnd: none
type Request struct {
	Command CmdType

	Tokens [][]byte

	// PageSize is the maximum number of pairs returned by RANGE_* commands.
	PageSize int16
}

// Arg is a command argument given as text or raw bytes.
// Text is sent as its UTF-8 bytes, bytes are sent unchanged.
type Arg interface {
	~string | ~[]byte
}

// Bytes normalizes a text or bytes argument.
func Bytes[T Arg](v T) []byte {
	return []byte(v)
}

// ToBytes normalizes a dynamically typed argument. Only string and []byte are
// accepted; any other type is an *InvalidArgumentError.
func ToBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, &InvalidArgumentError{Message: fmt.Sprintf("unsupported argument type %T", v)}
	}
}

// NewUseRequest selects a database.
func NewUseRequest(name string) *Request {
	return &Request{Command: CmdUse, Tokens: [][]byte{[]byte(name)}}
}

// NewDetachRequest detaches a database.
func NewDetachRequest(name string) *Request {
	return &Request{Command: CmdDetach, Tokens: [][]byte{[]byte(name)}}
}

// NewWriteRequest stores the pairs, in order.
func NewWriteRequest(pairs ...Pair) *Request {
	tokens := make([][]byte, 0, len(pairs)*2)
	for _, p := range pairs {
		tokens = append(tokens, p.Key, p.Value)
	}
	return &Request{Command: CmdWrite, Tokens: tokens}
}

// NewReadRequest fetches the keys, in order.
func NewReadRequest(keys ...[]byte) *Request {
	return &Request{Command: CmdRead, Tokens: keys}
}

// NewDeleteRequest removes the keys.
func NewDeleteRequest(keys ...[]byte) *Request {
	return &Request{Command: CmdDelete, Tokens: keys}
}

// NewCurrentDBRequest asks for the selected database.
func NewCurrentDBRequest() *Request {
	return &Request{Command: CmdCurrentDB}
}

// NewListDBRequest asks for the attached databases.
func NewListDBRequest() *Request {
	return &Request{Command: CmdListDB}
}

// NewRangeRequest builds one of the RANGE_* commands. from is ignored for
// CmdRangeBegin and CmdRangeEnd.
func NewRangeRequest(cmd CmdType, pageSize int16, from []byte) *Request {
	req := &Request{Command: cmd, PageSize: pageSize}
	if cmd != CmdRangeBegin && cmd != CmdRangeEnd {
		req.Tokens = [][]byte{from}
	}
	return req
}

// Pairs returns the key/value pairs of a CmdWrite request.
func (r *Request) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.Tokens)/2)
	for i := 0; i+1 < len(r.Tokens); i += 2 {
		pairs = append(pairs, Pair{Key: r.Tokens[i], Value: r.Tokens[i+1]})
	}
	return pairs
}

// Count returns the value of the size field for commands that carry one.
// ok is false for commands without a size field.
func (r *Request) Count() (n int, ok bool) {
	switch r.Command {
	case CmdWrite:
		return len(r.Tokens) / 2, true
	case CmdRead, CmdDelete:
		return len(r.Tokens), true
	case CmdRangeBegin, CmdRangeEnd, CmdRangeFromAsc, CmdRangeFromAscEx, CmdRangeFromDesc, CmdRangeFromDescEx:
		return int(r.PageSize), true
	default:
		return 0, false
	}
}

// Validate checks that the request can be framed.
// It runs before any byte of the request is written.
func (r *Request) Validate() error {
	if err := checkTokenLengths(r.Tokens); err != nil {
		return err
	}

	switch r.Command {
	case CmdWrite:
		if len(r.Tokens) == 0 {
			return &InvalidArgumentError{Message: "write requires at least one key/value pair"}
		}
		if len(r.Tokens)%2 != 0 {
			return &InvalidArgumentError{Message: "write requires an even number of tokens"}
		}
		if len(r.Tokens)/2 > MaxCount {
			return &InvalidArgumentError{Message: "too many pairs: " + strconv.Itoa(len(r.Tokens)/2)}
		}
		for i := 0; i < len(r.Tokens); i += 2 {
			if len(r.Tokens[i]) == 0 {
				return &InvalidArgumentError{Message: "write key must not be empty"}
			}
		}

	case CmdRead, CmdDelete:
		if len(r.Tokens) == 0 {
			return &InvalidArgumentError{Message: r.Command.String() + " requires at least one key"}
		}
		if len(r.Tokens) > MaxCount {
			return &InvalidArgumentError{Message: "too many keys: " + strconv.Itoa(len(r.Tokens))}
		}
		for _, key := range r.Tokens {
			if len(key) == 0 {
				return &InvalidArgumentError{Message: r.Command.String() + " key must not be empty"}
			}
		}

	case CmdUse, CmdDetach:
		if len(r.Tokens) != 1 || len(r.Tokens[0]) == 0 {
			return &InvalidArgumentError{Message: r.Command.String() + " requires a database name"}
		}

	case CmdCurrentDB, CmdListDB:
		if len(r.Tokens) != 0 {
			return &InvalidArgumentError{Message: r.Command.String() + " takes no arguments"}
		}

	case CmdRangeBegin, CmdRangeEnd:
		if r.PageSize <= 0 {
			return &InvalidArgumentError{Message: "page size must be positive"}
		}

	case CmdRangeFromAsc, CmdRangeFromAscEx, CmdRangeFromDesc, CmdRangeFromDescEx:
		if r.PageSize <= 0 {
			return &InvalidArgumentError{Message: "page size must be positive"}
		}
		if len(r.Tokens) != 1 || len(r.Tokens[0]) == 0 {
			return &InvalidArgumentError{Message: r.Command.String() + " requires a start key"}
		}

	default:
		return &InvalidArgumentError{Message: "unknown command " + r.Command.String()}
	}
	return nil
}

// checkTokenLengths rejects tokens whose length does not fit the 32-bit
// length field.
func checkTokenLengths(tokens [][]byte) error {
	for _, tok := range tokens {
		if err := checkTokenLength(len(tok)); err != nil {
			return err
		}
	}
	return nil
}

func checkTokenLength(n int) error {
	if uint64(n) > math.MaxUint32 {
		return &InvalidArgumentError{Message: "token too long: " + strconv.Itoa(n) + " bytes"}
	}
	return nil
}
