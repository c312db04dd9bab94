package wire

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"testing"
)

// Test request serialization

func TestWriteRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *Request
		expected []byte
	}{
		{
			name: "use",
			req:  NewUseRequest("gdb"),
			expected: []byte{
				0x04,
				0, 0, 0, 3, 'g', 'd', 'b',
			},
		},
		{
			name: "single pair write",
			req:  NewWriteRequest(Pair{Key: []byte("key1"), Value: []byte("value1")}),
			expected: []byte{
				0x01,
				0, 1,
				0, 0, 0, 4, 'k', 'e', 'y', '1',
				0, 0, 0, 6, 'v', 'a', 'l', 'u', 'e', '1',
			},
		},
		{
			name: "two pair write counts pairs",
			req: NewWriteRequest(
				Pair{Key: []byte("key"), Value: []byte("val")},
				Pair{Key: []byte("hello"), Value: []byte("world")},
			),
			expected: []byte{
				0x01,
				0, 2,
				0, 0, 0, 3, 'k', 'e', 'y',
				0, 0, 0, 3, 'v', 'a', 'l',
				0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o',
				0, 0, 0, 5, 'w', 'o', 'r', 'l', 'd',
			},
		},
		{
			name: "write with empty value sends null token",
			req:  NewWriteRequest(Pair{Key: []byte("k"), Value: []byte{}}),
			expected: []byte{
				0x01,
				0, 1,
				0, 0, 0, 1, 'k',
				0, 0, 0, 0,
			},
		},
		{
			name: "read keys",
			req:  NewReadRequest([]byte("a"), []byte("bc")),
			expected: []byte{
				0x03,
				0, 2,
				0, 0, 0, 1, 'a',
				0, 0, 0, 2, 'b', 'c',
			},
		},
		{
			name: "delete key",
			req:  NewDeleteRequest([]byte("a")),
			expected: []byte{
				0x02,
				0, 1,
				0, 0, 0, 1, 'a',
			},
		},
		{
			name:     "current db is header only",
			req:      NewCurrentDBRequest(),
			expected: []byte{0x05},
		},
		{
			name:     "list db is header only",
			req:      NewListDBRequest(),
			expected: []byte{0x06},
		},
		{
			name: "detach",
			req:  NewDetachRequest("db1"),
			expected: []byte{
				0x07,
				0, 0, 0, 3, 'd', 'b', '1',
			},
		},
		{
			name:     "range begin",
			req:      NewRangeRequest(CmdRangeBegin, 10, nil),
			expected: []byte{0x08, 0, 10},
		},
		{
			name:     "range end ignores start key",
			req:      NewRangeRequest(CmdRangeEnd, 300, []byte("ignored")),
			expected: []byte{0x09, 0x01, 0x2c},
		},
		{
			name: "range from desc exclusive",
			req:  NewRangeRequest(CmdRangeFromDescEx, 2, []byte("k")),
			expected: []byte{
				0x0D,
				0, 2,
				0, 0, 0, 1, 'k',
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := WriteRequest(w, tt.req); err != nil {
				t.Fatalf("WriteRequest failed: %v", err)
			}
			if got := buf.Bytes(); !bytes.Equal(got, tt.expected) {
				t.Errorf("WriteRequest() = %v, want %v", got, tt.expected)
			}
			if w.Buffered() != 0 {
				t.Errorf("Buffered() = %d after WriteRequest, want 0", w.Buffered())
			}
			if w.Written() != int64(len(tt.expected)) {
				t.Errorf("Written() = %d, want %d", w.Written(), len(tt.expected))
			}

			appended, err := AppendRequest(nil, tt.req)
			if err != nil {
				t.Fatalf("AppendRequest failed: %v", err)
			}
			if !bytes.Equal(appended, tt.expected) {
				t.Errorf("AppendRequest() = %v, want %v", appended, tt.expected)
			}
		})
	}
}

func TestWriteRequestInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{name: "empty write", req: NewWriteRequest()},
		{name: "odd write tokens", req: &Request{Command: CmdWrite, Tokens: [][]byte{[]byte("k")}}},
		{name: "empty read", req: NewReadRequest()},
		{name: "empty delete", req: NewDeleteRequest()},
		{name: "use without name", req: NewUseRequest("")},
		{name: "detach without name", req: NewDetachRequest("")},
		{name: "list db with tokens", req: &Request{Command: CmdListDB, Tokens: [][]byte{[]byte("x")}}},
		{name: "zero page size", req: NewRangeRequest(CmdRangeBegin, 0, nil)},
		{name: "negative page size", req: NewRangeRequest(CmdRangeEnd, -1, nil)},
		{name: "range from without key", req: NewRangeRequest(CmdRangeFromAsc, 5, nil)},
		{name: "unknown command", req: &Request{Command: CmdType(0x42)}},
		{name: "too many keys", req: NewReadRequest(make([][]byte, MaxCount+1)...)},
		{name: "write empty key", req: NewWriteRequest(Pair{Key: []byte("a"), Value: []byte("1")}, Pair{Key: nil, Value: []byte("2")})},
		{name: "read empty key", req: NewReadRequest([]byte("a"), []byte{})},
		{name: "delete empty key", req: NewDeleteRequest(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			err := WriteRequest(w, tt.req)

			var argErr *InvalidArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("WriteRequest() error = %v, want *InvalidArgumentError", err)
			}
			if buf.Len() != 0 || w.Buffered() != 0 {
				t.Errorf("invalid request wrote %d bytes (%d buffered)", buf.Len(), w.Buffered())
			}
		})
	}
}

// Test response serialization

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     Response
		expected []byte
	}{
		{
			name:     "ok",
			resp:     NewOKResponse("Ok."),
			expected: []byte{0x55, 0, 0, 0, 3, 'O', 'k', '.'},
		},
		{
			name:     "error",
			resp:     NewErrorResponse("no db selected"),
			expected: append([]byte{0x56, 0, 0, 0, 14}, "no db selected"...),
		},
		{
			name:     "null token",
			resp:     NewTokenResponse(nil),
			expected: []byte{0x57, 0, 0, 0, 0},
		},
		{
			name: "tokens with null entry",
			resp: NewTokensResponse([]byte("v1"), nil),
			expected: []byte{
				0x58,
				0, 2,
				0, 0, 0, 2, 'v', '1',
				0, 0, 0, 0,
			},
		},
		{
			name:     "empty tokens",
			resp:     NewTokensResponse(),
			expected: []byte{0x58, 0, 0},
		},
		{
			name: "pairs",
			resp: NewPairsResponse(Pair{Key: []byte("a"), Value: []byte("1")}),
			expected: []byte{
				0x59,
				0, 1,
				0, 0, 0, 1, 'a',
				0, 0, 0, 1, '1',
			},
		},
		{
			name:     "empty pairs",
			resp:     NewPairsResponse(),
			expected: []byte{0x59, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := WriteResponse(w, tt.resp); err != nil {
				t.Fatalf("WriteResponse failed: %v", err)
			}
			if got := buf.Bytes(); !bytes.Equal(got, tt.expected) {
				t.Errorf("WriteResponse() = %v, want %v", got, tt.expected)
			}

			appended, err := AppendResponse(nil, tt.resp)
			if err != nil {
				t.Fatalf("AppendResponse failed: %v", err)
			}
			if !bytes.Equal(appended, tt.expected) {
				t.Errorf("AppendResponse() = %v, want %v", appended, tt.expected)
			}
		})
	}
}

// Test flush points: only the field marked last reaches the stream.

func TestWriterFlushOnLast(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteHeader(byte(CmdRead), false); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := w.WriteSize(1, false); err != nil {
		t.Fatalf("WriteSize failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("stream has %d bytes before the last write, want 0", buf.Len())
	}
	if w.Buffered() != 3 {
		t.Fatalf("Buffered() = %d, want 3", w.Buffered())
	}

	if err := w.WriteToken([]byte("k"), true); err != nil {
		t.Fatalf("WriteToken failed: %v", err)
	}
	if buf.Len() != 8 {
		t.Errorf("stream has %d bytes after the last write, want 8", buf.Len())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterConnectionError(t *testing.T) {
	w := NewWriter(failingWriter{})
	err := WriteRequest(w, NewCurrentDBRequest())

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("WriteRequest() error = %v, want *ConnectionError", err)
	}
	if connErr.Op != "flush" {
		t.Errorf("ConnectionError.Op = %q, want %q", connErr.Op, "flush")
	}
	if !ShouldCloseConnection(err) {
		t.Error("ShouldCloseConnection() = false for a write failure")
	}
}

func TestToBytes(t *testing.T) {
	b, err := ToBytes("text")
	if err != nil || string(b) != "text" {
		t.Errorf(`ToBytes("text") = %q, %v`, b, err)
	}

	raw := []byte{0xff, 0x00}
	b, err = ToBytes(raw)
	if err != nil || !bytes.Equal(b, raw) {
		t.Errorf("ToBytes(raw) = %v, %v", b, err)
	}

	for _, v := range []any{42, nil, 3.14, []string{"a"}} {
		_, err := ToBytes(v)
		var argErr *InvalidArgumentError
		if !errors.As(err, &argErr) {
			t.Errorf("ToBytes(%#v) error = %v, want *InvalidArgumentError", v, err)
		}
	}

	type name string
	if got := Bytes(name("db")); string(got) != "db" {
		t.Errorf("Bytes(name) = %q", got)
	}
}

func TestCheckTokenLength(t *testing.T) {
	if err := checkTokenLength(0); err != nil {
		t.Errorf("checkTokenLength(0) = %v, want nil", err)
	}

	if strconv.IntSize < 64 {
		t.Skip("lengths above 32 bits need a 64-bit int")
	}

	limit := uint64(math.MaxUint32)
	if err := checkTokenLength(int(limit)); err != nil {
		t.Errorf("checkTokenLength(MaxUint32) = %v, want nil", err)
	}

	var argErr *InvalidArgumentError
	if err := checkTokenLength(int(limit + 1)); !errors.As(err, &argErr) {
		t.Errorf("checkTokenLength(MaxUint32+1) = %v, want *InvalidArgumentError", err)
	}
}
