package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
	"unicode/utf8"
)

// Reader consumes frame fields from a stream.
//
// Every read blocks until the requested number of bytes is available. A stream
// that ends before the first byte of a frame yields a *ConnectionError wrapping
// io.EOF; a stream that ends inside a frame yields a *FrameError wrapping
// ErrShortRead.
//
// Reader is not safe for concurrent use.
type Reader struct {
	br *bufio.Reader

	// MaxTokenLength bounds the size of a single token. Larger length
	// prefixes are rejected with a *FrameError before allocating.
	MaxTokenLength uint32

	read    int64
	scratch [TokenLengthLength]byte
}

// NewReader returns a Reader on r. A *bufio.Reader is used as is.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{br: br, MaxTokenLength: DefaultMaxTokenLength}
}

// BytesRead returns the number of frame bytes consumed by the Reader.
func (r *Reader) BytesRead() int64 {
	return r.read
}

// Buffered returns the number of bytes already received but not consumed.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}

// readFull fills b. field names the frame field for error messages.
func (r *Reader) readFull(b []byte, field string) error {
	n, err := io.ReadFull(r.br, b)
	r.read += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FrameError{Message: "stream ended while reading " + field, Err: ErrShortRead}
	}
	return &ConnectionError{Op: "read", Err: err}
}

// ReadHeader reads the one-byte tag starting a frame.
// io.EOF at this point means the peer closed the stream between frames and is
// reported as a *ConnectionError.
func (r *Reader) ReadHeader() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, &ConnectionError{Op: "read", Err: err}
	}
	r.read += HeaderLength
	return b, nil
}

// ReadSize reads a signed 16-bit big-endian count. Negative counts are a
// *FrameError.
func (r *Reader) ReadSize() (int16, error) {
	if err := r.readFull(r.scratch[:SizeLength], "count"); err != nil {
		return 0, err
	}
	n := int16(binary.BigEndian.Uint16(r.scratch[:SizeLength]))
	if n < 0 {
		return 0, &FrameError{Message: "negative count " + strconv.Itoa(int(n))}
	}
	return n, nil
}

// ReadToken reads a length-prefixed token. A zero length yields nil, the null
// token; a non-empty token is returned verbatim in a fresh slice.
func (r *Reader) ReadToken() ([]byte, error) {
	if err := r.readFull(r.scratch[:], "token length"); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(r.scratch[:])
	if length == 0 {
		return nil, nil
	}
	if r.MaxTokenLength > 0 && length > r.MaxTokenLength {
		return nil, &FrameError{Message: "token length " + strconv.FormatUint(uint64(length), 10) + " exceeds maximum"}
	}

	data := make([]byte, length)
	if err := r.readFull(data, "token"); err != nil {
		return nil, err
	}
	return data, nil
}

// readText reads a token holding a UTF-8 message. The null token is "".
func (r *Reader) readText() (string, error) {
	tok, err := r.ReadToken()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(tok) {
		return "", &FrameError{Message: "message is not valid UTF-8"}
	}
	return string(tok), nil
}

func (r *Reader) readTokens(n int) ([][]byte, error) {
	tokens := make([][]byte, n)
	for i := range tokens {
		tok, err := r.ReadToken()
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

// ReadResponse reads and decodes one response frame.
//
// Dispatch on the tag:
//   - OK: one text token
//   - ERROR: one text token, returned as *ErrorResponse (not as a Go error)
//   - TOKEN: one token, possibly null
//   - TOKENS: count, then count tokens
//   - PAIRS: count, then count key/value token pairs
//   - anything else: *FrameError wrapping ErrUnknownResponse
//
// A server-side failure is data: callers decide how to surface *ErrorResponse.
// Go errors always mean the connection must be closed.
func ReadResponse(r *Reader) (Response, error) {
	tag, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}

	switch RespType(tag) {
	case RespOK:
		msg, err := r.readText()
		if err != nil {
			return nil, err
		}
		return &OKResponse{Message: msg}, nil

	case RespError:
		msg, err := r.readText()
		if err != nil {
			return nil, err
		}
		return &ErrorResponse{Message: msg}, nil

	case RespToken:
		tok, err := r.ReadToken()
		if err != nil {
			return nil, err
		}
		return &TokenResponse{Value: tok}, nil

	case RespTokens:
		n, err := r.ReadSize()
		if err != nil {
			return nil, err
		}
		tokens, err := r.readTokens(int(n))
		if err != nil {
			return nil, err
		}
		return &TokensResponse{Values: tokens}, nil

	case RespPairs:
		n, err := r.ReadSize()
		if err != nil {
			return nil, err
		}
		pairs := make([]Pair, n)
		for i := range pairs {
			if pairs[i].Key, err = r.ReadToken(); err != nil {
				return nil, err
			}
			if pairs[i].Value, err = r.ReadToken(); err != nil {
				return nil, err
			}
		}
		return &PairsResponse{Pairs: pairs}, nil

	default:
		return nil, &FrameError{Message: "tag 0x" + hexByte(tag), Err: ErrUnknownResponse}
	}
}

// ReadRequest reads and decodes one command frame (server side).
func ReadRequest(r *Reader) (*Request, error) {
	tag, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}

	req := &Request{Command: CmdType(tag)}

	switch req.Command {
	case CmdCurrentDB, CmdListDB:
		return req, nil

	case CmdUse, CmdDetach:
		tok, err := r.ReadToken()
		if err != nil {
			return nil, err
		}
		req.Tokens = [][]byte{tok}
		return req, nil

	case CmdWrite:
		n, err := r.ReadSize()
		if err != nil {
			return nil, err
		}
		if req.Tokens, err = r.readTokens(int(n) * 2); err != nil {
			return nil, err
		}
		return req, nil

	case CmdRead, CmdDelete:
		n, err := r.ReadSize()
		if err != nil {
			return nil, err
		}
		if req.Tokens, err = r.readTokens(int(n)); err != nil {
			return nil, err
		}
		return req, nil

	case CmdRangeBegin, CmdRangeEnd:
		if req.PageSize, err = r.ReadSize(); err != nil {
			return nil, err
		}
		return req, nil

	case CmdRangeFromAsc, CmdRangeFromAscEx, CmdRangeFromDesc, CmdRangeFromDescEx:
		if req.PageSize, err = r.ReadSize(); err != nil {
			return nil, err
		}
		tok, err := r.ReadToken()
		if err != nil {
			return nil, err
		}
		req.Tokens = [][]byte{tok}
		return req, nil

	default:
		return nil, &FrameError{Message: "tag 0x" + hexByte(tag), Err: ErrUnknownCommand}
	}
}
