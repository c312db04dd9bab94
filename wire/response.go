package wire

// Response is a decoded response frame. Exactly one variant is active:
// OKResponse, ErrorResponse, TokenResponse, TokensResponse or PairsResponse.
//
// Use a type switch to inspect it:
//
//	switch r := resp.(type) {
//	case *wire.TokensResponse:
//	    values := r.Values
//	case *wire.OKResponse:
//	    msg := r.Message
//	}
type Response interface {
	// Type returns the response tag written on the wire.
	Type() RespType

	isResponse()
}

// Pair is a key/value couple. A nil field is a null token.
type Pair struct {
	Key   []byte
	Value []byte
}

// OKResponse acknowledges a command. Message is "Ok." for the reference server.
type OKResponse struct {
	Message string
}

// ErrorResponse is an application-level failure reported by the server.
// Clients usually surface it as *OpError (see (*ErrorResponse).Err).
type ErrorResponse struct {
	Message string
}

// TokenResponse carries a single value. Value is nil for the null token.
type TokenResponse struct {
	Value []byte
}

// TokensResponse carries an ordered list of values; entries may be nil.
type TokensResponse struct {
	Values [][]byte
}

// PairsResponse carries an ordered list of key/value pairs.
type PairsResponse struct {
	Pairs []Pair
}

func (*OKResponse) Type() RespType     { return RespOK }
func (*ErrorResponse) Type() RespType  { return RespError }
func (*TokenResponse) Type() RespType  { return RespToken }
func (*TokensResponse) Type() RespType { return RespTokens }
func (*PairsResponse) Type() RespType  { return RespPairs }

func (*OKResponse) isResponse()     {}
func (*ErrorResponse) isResponse()  {}
func (*TokenResponse) isResponse()  {}
func (*TokensResponse) isResponse() {}
func (*PairsResponse) isResponse()  {}

// Err converts the response into the error returned to callers.
func (r *ErrorResponse) Err() error {
	return &OpError{Message: r.Message}
}

// NewOKResponse returns an OK response with the given message.
func NewOKResponse(msg string) *OKResponse { return &OKResponse{Message: msg} }

// NewErrorResponse returns an ERROR response with the given message.
func NewErrorResponse(msg string) *ErrorResponse { return &ErrorResponse{Message: msg} }

// NewTokenResponse returns a TOKEN response. A nil value is sent as the null token.
func NewTokenResponse(value []byte) *TokenResponse { return &TokenResponse{Value: value} }

// NewTokensResponse returns a TOKENS response.
func NewTokensResponse(values ...[]byte) *TokensResponse { return &TokensResponse{Values: values} }

// NewPairsResponse returns a PAIRS response.
func NewPairsResponse(pairs ...Pair) *PairsResponse { return &PairsResponse{Pairs: pairs} }
