package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

func TestReadResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected Response
	}{
		{
			name:     "ok message",
			input:    []byte{0x55, 0, 0, 0, 3, 'O', 'k', '.'},
			expected: &OKResponse{Message: "Ok."},
		},
		{
			name:     "ok with null message",
			input:    []byte{0x55, 0, 0, 0, 0},
			expected: &OKResponse{Message: ""},
		},
		{
			name:     "error message",
			input:    append([]byte{0x56, 0, 0, 0, 14}, "no db selected"...),
			expected: &ErrorResponse{Message: "no db selected"},
		},
		{
			name:     "token",
			input:    []byte{0x57, 0, 0, 0, 3, 'g', 'd', 'b'},
			expected: &TokenResponse{Value: []byte("gdb")},
		},
		{
			name:     "null token",
			input:    []byte{0x57, 0, 0, 0, 0},
			expected: &TokenResponse{Value: nil},
		},
		{
			name: "tokens",
			input: []byte{
				0x58,
				0, 1,
				0, 0, 0, 6, 'v', 'a', 'l', 'u', 'e', '1',
			},
			expected: &TokensResponse{Values: [][]byte{[]byte("value1")}},
		},
		{
			name: "tokens with null entry",
			input: []byte{
				0x58,
				0, 3,
				0, 0, 0, 1, 'a',
				0, 0, 0, 0,
				0, 0, 0, 1, 'c',
			},
			expected: &TokensResponse{Values: [][]byte{[]byte("a"), nil, []byte("c")}},
		},
		{
			name:     "empty tokens",
			input:    []byte{0x58, 0, 0},
			expected: &TokensResponse{Values: [][]byte{}},
		},
		{
			name: "pairs",
			input: []byte{
				0x59,
				0, 2,
				0, 0, 0, 1, 'a',
				0, 0, 0, 1, '1',
				0, 0, 0, 1, 'b',
				0, 0, 0, 0,
			},
			expected: &PairsResponse{Pairs: []Pair{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("b"), Value: nil},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(tt.input)
			resp, err := ReadResponse(r)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp)
			assert.Equal(t, int64(len(tt.input)), r.BytesRead())
		})
	}
}

func TestReadResponseNullIsNotEmpty(t *testing.T) {
	r := newTestReader([]byte{0x58, 0, 1, 0, 0, 0, 0})
	resp, err := ReadResponse(r)
	require.NoError(t, err)

	tokens := resp.(*TokensResponse)
	require.Len(t, tokens.Values, 1)
	assert.Nil(t, tokens.Values[0])
}

func TestReadResponseUnknownTag(t *testing.T) {
	for _, tag := range []byte{0x00, 0x01, 0x54, 0x5a, 0xff} {
		r := newTestReader([]byte{tag, 0, 0, 0, 0})
		resp, err := ReadResponse(r)
		require.Nil(t, resp)

		var frameErr *FrameError
		require.ErrorAs(t, err, &frameErr)
		assert.ErrorIs(t, err, ErrUnknownResponse)
		assert.True(t, ShouldCloseConnection(err))
	}
}

func TestReadResponseShortRead(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{name: "ok without token", input: []byte{0x55}},
		{name: "truncated length", input: []byte{0x55, 0, 0}},
		{name: "truncated payload", input: []byte{0x55, 0, 0, 0, 3, 'O', 'k'}},
		{name: "tokens without count", input: []byte{0x58, 0}},
		{name: "tokens missing entries", input: []byte{0x58, 0, 2, 0, 0, 0, 1, 'a'}},
		{name: "pairs missing value", input: []byte{0x59, 0, 1, 0, 0, 0, 1, 'a'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadResponse(newTestReader(tt.input))

			var frameErr *FrameError
			require.ErrorAs(t, err, &frameErr)
			assert.ErrorIs(t, err, ErrShortRead)
			assert.True(t, ShouldCloseConnection(err))
		})
	}
}

func TestReadResponseEOFBetweenFrames(t *testing.T) {
	_, err := ReadResponse(newTestReader(nil))

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadResponseNegativeCount(t *testing.T) {
	_, err := ReadResponse(newTestReader([]byte{0x58, 0xff, 0xff}))

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Contains(t, err.Error(), "negative count")
}

func TestReadResponseInvalidUTF8(t *testing.T) {
	_, err := ReadResponse(newTestReader([]byte{0x55, 0, 0, 0, 2, 0xff, 0xfe}))

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
}

func TestReadTokenTooLarge(t *testing.T) {
	r := newTestReader([]byte{0x57, 0x7f, 0xff, 0xff, 0xff})
	r.MaxTokenLength = 1024

	_, err := ReadResponse(r)
	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestReadResponseSequential(t *testing.T) {
	var data []byte
	data, _ = AppendResponse(data, NewOKResponse("Ok."))
	data, _ = AppendResponse(data, NewTokensResponse([]byte("v")))
	data, _ = AppendResponse(data, NewErrorResponse("boom"))

	r := newTestReader(data)

	resp, err := ReadResponse(r)
	require.NoError(t, err)
	assert.Equal(t, RespOK, resp.Type())

	resp, err = ReadResponse(r)
	require.NoError(t, err)
	assert.Equal(t, RespTokens, resp.Type())

	resp, err = ReadResponse(r)
	require.NoError(t, err)
	require.Equal(t, RespError, resp.Type())

	opErr := resp.(*ErrorResponse).Err()
	assert.EqualError(t, opErr, "rsdb: operation failed: boom")
	assert.False(t, ShouldCloseConnection(opErr))
	assert.Equal(t, 0, r.Buffered())
}

func TestReadRequest(t *testing.T) {
	requests := []*Request{
		NewUseRequest("gdb"),
		NewWriteRequest(Pair{Key: []byte("k1"), Value: []byte("v1")}, Pair{Key: []byte("k2"), Value: []byte("v2")}),
		NewReadRequest([]byte("k1"), []byte("k2")),
		NewDeleteRequest([]byte("k1")),
		NewCurrentDBRequest(),
		NewListDBRequest(),
		NewDetachRequest("gdb"),
		NewRangeRequest(CmdRangeBegin, 10, nil),
		NewRangeRequest(CmdRangeEnd, 10, nil),
		NewRangeRequest(CmdRangeFromAsc, 3, []byte("k")),
		NewRangeRequest(CmdRangeFromAscEx, 3, []byte("k")),
		NewRangeRequest(CmdRangeFromDesc, 3, []byte("k")),
		NewRangeRequest(CmdRangeFromDescEx, 3, []byte("k")),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, req := range requests {
		require.NoError(t, WriteRequest(w, req))
	}

	r := NewReader(&buf)
	for _, want := range requests {
		got, err := ReadRequest(r)
		require.NoError(t, err)
		assert.Equal(t, want.Command, got.Command)
		assert.Equal(t, want.PageSize, got.PageSize)
		assert.Equal(t, len(want.Tokens), len(got.Tokens), want.Command.String())
		for i := range want.Tokens {
			assert.Equal(t, want.Tokens[i], got.Tokens[i])
		}
	}

	_, err := ReadRequest(r)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestReadRequestUnknownCommand(t *testing.T) {
	_, err := ReadRequest(newTestReader([]byte{0x55}))
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestWritePairsRoundTrip(t *testing.T) {
	req := NewWriteRequest(
		Pair{Key: []byte("a"), Value: []byte("1")},
		Pair{Key: []byte("b"), Value: []byte("2")},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteRequest(NewWriter(&buf), req))

	got, err := ReadRequest(NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, req.Pairs(), got.Pairs())
}
