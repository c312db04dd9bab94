package rsdb

import (
	"context"
	"slices"

	"github.com/pior/rsdb/wire"
)

// Keys converts strings or byte slices to the key list accepted by Get and
// Delete.
//
//	s.Get(ctx, rsdb.Keys("user:1", "user:2")...)
func Keys[T wire.Arg](keys ...T) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = wire.Bytes(k)
	}
	return out
}

// Use selects the database name on this connection. The server creates it if
// needed. On OK the session remembers name as its DB.
func (s *Session) Use(ctx context.Context, name string) (wire.Response, error) {
	return s.Do(ctx, wire.NewUseRequest(name))
}

// Set stores one key/value pair in the selected database.
// An empty value is sent as the null token.
func (s *Session) Set(ctx context.Context, key, value []byte) (wire.Response, error) {
	return s.MSet(ctx, wire.Pair{Key: key, Value: value})
}

// MSet stores pairs in a single write command. At least one pair is required.
func (s *Session) MSet(ctx context.Context, pairs ...wire.Pair) (wire.Response, error) {
	return s.Do(ctx, wire.NewWriteRequest(pairs...))
}

// MSetMap stores every entry of m in a single write command, keys in sorted
// order. Values must be strings or byte slices; any other type fails with a
// *wire.InvalidArgumentError before anything is written.
func (s *Session) MSetMap(ctx context.Context, m map[string]any) (wire.Response, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]wire.Pair, 0, len(keys))
	for _, k := range keys {
		v, err := wire.ToBytes(m[k])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, wire.Pair{Key: []byte(k), Value: v})
	}
	return s.MSet(ctx, pairs...)
}

// Get reads keys from the selected database. The reply is a
// *wire.TokensResponse parallel to keys, with nil for missing keys.
func (s *Session) Get(ctx context.Context, keys ...[]byte) (wire.Response, error) {
	return s.Do(ctx, wire.NewReadRequest(keys...))
}

// Delete removes keys from the selected database.
func (s *Session) Delete(ctx context.Context, keys ...[]byte) (wire.Response, error) {
	return s.Do(ctx, wire.NewDeleteRequest(keys...))
}

// CurrentDB asks the server which database is selected. A *wire.TokenResponse
// reply also updates DB.
func (s *Session) CurrentDB(ctx context.Context) (wire.Response, error) {
	return s.Do(ctx, wire.NewCurrentDBRequest())
}

// ListDB lists the databases open on the server.
func (s *Session) ListDB(ctx context.Context) (wire.Response, error) {
	return s.Do(ctx, wire.NewListDBRequest())
}

// Detach closes the database name on the server. When it is the session's
// database, the session no longer has one selected.
func (s *Session) Detach(ctx context.Context, name string) (wire.Response, error) {
	return s.Do(ctx, wire.NewDetachRequest(name))
}

// RangeStart positions a range scan.
//
// With a nil Key the scan starts at the first key (or the last key when
// Reverse is set). Otherwise it starts at Key, or at the nearest key after it
// in scan direction; Exclusive skips Key itself.
type RangeStart struct {
	Key       []byte
	Reverse   bool
	Exclusive bool
}

func (r RangeStart) command() wire.CmdType {
	switch {
	case len(r.Key) == 0 && !r.Reverse:
		return wire.CmdRangeBegin
	case len(r.Key) == 0:
		return wire.CmdRangeEnd
	case !r.Reverse && !r.Exclusive:
		return wire.CmdRangeFromAsc
	case !r.Reverse:
		return wire.CmdRangeFromAscEx
	case !r.Exclusive:
		return wire.CmdRangeFromDesc
	default:
		return wire.CmdRangeFromDescEx
	}
}

// Range reads up to pageSize pairs in key order starting at start. The reply
// is a *wire.PairsResponse.
func (s *Session) Range(ctx context.Context, start RangeStart, pageSize int) (wire.Response, error) {
	if pageSize <= 0 || pageSize > wire.MaxCount {
		return nil, &wire.InvalidArgumentError{Message: "page size out of range"}
	}
	return s.Do(ctx, wire.NewRangeRequest(start.command(), int16(pageSize), start.Key))
}

// GetValue reads a single key. A missing key returns nil and no error.
func (s *Session) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	values, err := s.GetValues(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, &wire.UnexpectedResponseError{Got: wire.RespTokens}
	}
	return values[0], nil
}

// GetValues reads keys and returns their values in request order, nil for
// missing keys. A single TOKEN reply is returned as a one-element slice.
func (s *Session) GetValues(ctx context.Context, keys ...[]byte) ([][]byte, error) {
	resp, err := s.Get(ctx, keys...)
	if err != nil {
		return nil, err
	}
	switch r := resp.(type) {
	case *wire.TokensResponse:
		return r.Values, nil
	case *wire.TokenResponse:
		return [][]byte{r.Value}, nil
	default:
		return nil, &wire.UnexpectedResponseError{Got: resp.Type()}
	}
}

// CurrentDBName returns the name of the database selected on the server.
func (s *Session) CurrentDBName(ctx context.Context) (string, error) {
	resp, err := s.CurrentDB(ctx)
	if err != nil {
		return "", err
	}
	tok, ok := resp.(*wire.TokenResponse)
	if !ok {
		return "", &wire.UnexpectedResponseError{Got: resp.Type()}
	}
	return string(tok.Value), nil
}

// DBNames returns the databases open on the server.
func (s *Session) DBNames(ctx context.Context) ([]string, error) {
	resp, err := s.ListDB(ctx)
	if err != nil {
		return nil, err
	}
	tokens, ok := resp.(*wire.TokensResponse)
	if !ok {
		return nil, &wire.UnexpectedResponseError{Got: resp.Type()}
	}

	names := make([]string, len(tokens.Values))
	for i, v := range tokens.Values {
		names[i] = string(v)
	}
	return names, nil
}

// RangePairs runs Range and returns the pairs.
func (s *Session) RangePairs(ctx context.Context, start RangeStart, pageSize int) ([]wire.Pair, error) {
	resp, err := s.Range(ctx, start, pageSize)
	if err != nil {
		return nil, err
	}
	pairs, ok := resp.(*wire.PairsResponse)
	if !ok {
		return nil, &wire.UnexpectedResponseError{Got: resp.Type()}
	}
	return pairs.Pairs, nil
}

// Walk pages through the database from start, pageSize pairs per command,
// calling fn for each pair until fn returns false or the keys run out. Each
// following page starts exclusively after the last key seen.
func (s *Session) Walk(ctx context.Context, start RangeStart, pageSize int, fn func(wire.Pair) bool) error {
	for {
		pairs, err := s.RangePairs(ctx, start, pageSize)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			if !fn(p) {
				return nil
			}
		}
		if len(pairs) < pageSize {
			return nil
		}
		last := pairs[len(pairs)-1].Key
		if len(last) == 0 {
			// An empty key cannot be sent as a start key.
			return &wire.UnexpectedResponseError{Got: wire.RespPairs}
		}
		start = RangeStart{Key: last, Reverse: start.Reverse, Exclusive: true}
	}
}
