package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
)

// Writer emits frame fields onto a stream.
//
// Every method takes a last argument. When last is false the bytes may stay in
// the buffer; when true the buffer is flushed and the method returns only once
// everything written so far has been handed to the underlying writer. The final
// write of a command must be marked last.
//
// Writer is not safe for concurrent use.
type Writer struct {
	bw      *bufio.Writer
	written int64
	scratch [TokenLengthLength]byte
}

// NewWriter returns a Writer on w. A *bufio.Writer is used as is.
func NewWriter(w io.Writer) *Writer {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Writer{bw: bw}
}

// Written returns the number of frame bytes accepted by the Writer.
func (w *Writer) Written() int64 {
	return w.written
}

// Buffered returns the number of bytes not yet flushed.
func (w *Writer) Buffered() int {
	return w.bw.Buffered()
}

// Flush forces the buffered bytes onto the stream.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return &ConnectionError{Op: "flush", Err: err}
	}
	return nil
}

// WriteHeader writes the one-byte tag of a command or response.
func (w *Writer) WriteHeader(tag byte, last bool) error {
	if err := w.bw.WriteByte(tag); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	w.written += HeaderLength
	return w.end(last)
}

// WriteSize writes a signed 16-bit big-endian count.
func (w *Writer) WriteSize(n int16, last bool) error {
	binary.BigEndian.PutUint16(w.scratch[:SizeLength], uint16(n))
	if _, err := w.bw.Write(w.scratch[:SizeLength]); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	w.written += SizeLength
	return w.end(last)
}

// WriteToken writes a 32-bit big-endian length followed by b.
// An empty or nil b is written as length 0, the null token.
func (w *Writer) WriteToken(b []byte, last bool) error {
	binary.BigEndian.PutUint32(w.scratch[:], uint32(len(b)))
	if _, err := w.bw.Write(w.scratch[:]); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	if len(b) > 0 {
		if _, err := w.bw.Write(b); err != nil {
			return &ConnectionError{Op: "write", Err: err}
		}
	}
	w.written += int64(TokenLengthLength + len(b))
	return w.end(last)
}

func (w *Writer) end(last bool) error {
	if !last {
		return nil
	}
	return w.Flush()
}

// writeTokens writes tokens in order; the final one carries last.
func (w *Writer) writeTokens(tokens [][]byte, last bool) error {
	for i, tok := range tokens {
		if err := w.WriteToken(tok, last && i == len(tokens)-1); err != nil {
			return err
		}
	}
	return nil
}

// WriteRequest serializes a command frame and flushes it.
//
// Format: <tag> [<count>] <token>*
//
// The request is validated first; an invalid request returns an
// *InvalidArgumentError and writes nothing.
func WriteRequest(w *Writer, req *Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	switch req.Command {
	case CmdCurrentDB, CmdListDB:
		// Header is the whole frame
		return w.WriteHeader(byte(req.Command), true)

	case CmdUse, CmdDetach:
		if err := w.WriteHeader(byte(req.Command), false); err != nil {
			return err
		}
		return w.WriteToken(req.Tokens[0], true)

	case CmdRangeBegin, CmdRangeEnd:
		if err := w.WriteHeader(byte(req.Command), false); err != nil {
			return err
		}
		return w.WriteSize(req.PageSize, true)

	case CmdRangeFromAsc, CmdRangeFromAscEx, CmdRangeFromDesc, CmdRangeFromDescEx:
		if err := w.WriteHeader(byte(req.Command), false); err != nil {
			return err
		}
		if err := w.WriteSize(req.PageSize, false); err != nil {
			return err
		}
		return w.WriteToken(req.Tokens[0], true)

	default:
		// CmdWrite, CmdRead, CmdDelete
		count, _ := req.Count()
		if err := w.WriteHeader(byte(req.Command), false); err != nil {
			return err
		}
		if err := w.WriteSize(int16(count), false); err != nil {
			return err
		}
		return w.writeTokens(req.Tokens, true)
	}
}

// WriteResponse serializes a response frame and flushes it.
func WriteResponse(w *Writer, resp Response) error {
	if err := checkResponseTokens(resp); err != nil {
		return err
	}

	switch r := resp.(type) {
	case *OKResponse:
		if err := w.WriteHeader(byte(RespOK), false); err != nil {
			return err
		}
		return w.WriteToken([]byte(r.Message), true)

	case *ErrorResponse:
		if err := w.WriteHeader(byte(RespError), false); err != nil {
			return err
		}
		return w.WriteToken([]byte(r.Message), true)

	case *TokenResponse:
		if err := w.WriteHeader(byte(RespToken), false); err != nil {
			return err
		}
		return w.WriteToken(r.Value, true)

	case *TokensResponse:
		if len(r.Values) > MaxCount {
			return &InvalidArgumentError{Message: "too many tokens: " + strconv.Itoa(len(r.Values))}
		}
		if err := w.WriteHeader(byte(RespTokens), false); err != nil {
			return err
		}
		if err := w.WriteSize(int16(len(r.Values)), len(r.Values) == 0); err != nil {
			return err
		}
		return w.writeTokens(r.Values, true)

	case *PairsResponse:
		if len(r.Pairs) > MaxCount {
			return &InvalidArgumentError{Message: "too many pairs: " + strconv.Itoa(len(r.Pairs))}
		}
		if err := w.WriteHeader(byte(RespPairs), false); err != nil {
			return err
		}
		if err := w.WriteSize(int16(len(r.Pairs)), len(r.Pairs) == 0); err != nil {
			return err
		}
		for i, p := range r.Pairs {
			if err := w.WriteToken(p.Key, false); err != nil {
				return err
			}
			if err := w.WriteToken(p.Value, i == len(r.Pairs)-1); err != nil {
				return err
			}
		}
		return nil

	default:
		return &InvalidArgumentError{Message: "unsupported response type"}
	}
}

// AppendToken appends the encoding of a token to dst.
func AppendToken(dst, b []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
	return append(dst, b...)
}

// AppendSize appends the encoding of a count to dst.
func AppendSize(dst []byte, n int16) []byte {
	return binary.BigEndian.AppendUint16(dst, uint16(n))
}

// AppendRequest appends the frame of req to dst.
// It produces exactly the bytes WriteRequest would write.
func AppendRequest(dst []byte, req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return dst, err
	}

	dst = append(dst, byte(req.Command))
	if n, ok := req.Count(); ok {
		dst = AppendSize(dst, int16(n))
	}
	for _, tok := range req.Tokens {
		dst = AppendToken(dst, tok)
	}
	return dst, nil
}

// AppendResponse appends the frame of resp to dst.
func AppendResponse(dst []byte, resp Response) ([]byte, error) {
	if err := checkResponseTokens(resp); err != nil {
		return dst, err
	}

	switch r := resp.(type) {
	case *OKResponse:
		dst = append(dst, byte(RespOK))
		dst = AppendToken(dst, []byte(r.Message))
	case *ErrorResponse:
		dst = append(dst, byte(RespError))
		dst = AppendToken(dst, []byte(r.Message))
	case *TokenResponse:
		dst = append(dst, byte(RespToken))
		dst = AppendToken(dst, r.Value)
	case *TokensResponse:
		if len(r.Values) > MaxCount {
			return dst, &InvalidArgumentError{Message: "too many tokens: " + strconv.Itoa(len(r.Values))}
		}
		dst = append(dst, byte(RespTokens))
		dst = AppendSize(dst, int16(len(r.Values)))
		for _, v := range r.Values {
			dst = AppendToken(dst, v)
		}
	case *PairsResponse:
		if len(r.Pairs) > MaxCount {
			return dst, &InvalidArgumentError{Message: "too many pairs: " + strconv.Itoa(len(r.Pairs))}
		}
		dst = append(dst, byte(RespPairs))
		dst = AppendSize(dst, int16(len(r.Pairs)))
		for _, p := range r.Pairs {
			dst = AppendToken(dst, p.Key)
			dst = AppendToken(dst, p.Value)
		}
	default:
		return dst, &InvalidArgumentError{Message: "unsupported response type"}
	}
	return dst, nil
}

func checkResponseTokens(resp Response) error {
	switch r := resp.(type) {
	case *OKResponse:
		return checkTokenLength(len(r.Message))
	case *ErrorResponse:
		return checkTokenLength(len(r.Message))
	case *TokenResponse:
		return checkTokenLength(len(r.Value))
	case *TokensResponse:
		return checkTokenLengths(r.Values)
	case *PairsResponse:
		for _, p := range r.Pairs {
			if err := checkTokenLengths([][]byte{p.Key, p.Value}); err != nil {
				return err
			}
		}
	}
	return nil
}
