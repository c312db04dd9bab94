package wire

import "math"

// CmdType is the one-byte header of a command frame (client to server).
type CmdType uint8

// RespType is the one-byte header of a response frame (server to client).
type RespType uint8

// ProtocolVersion identifies the tag registry below.
// Renumbering any tag is a breaking change and requires a new version.
const ProtocolVersion = 1

// Field widths
const (
	// HeaderLength is the width of the command/response tag.
	HeaderLength = 1

	// SizeLength is the width of the signed big-endian count field.
	SizeLength = 2

	// TokenLengthLength is the width of the unsigned big-endian token length prefix.
	TokenLengthLength = 4
)

// Limits
const (
	// MaxCount is the largest element count a size field can carry.
	MaxCount = math.MaxInt16

	// DefaultMaxTokenLength bounds the allocation made for a single token read.
	DefaultMaxTokenLength = 64 << 20
)

// Command codes
//
// Payload shapes (count is a signed 16-bit big-endian integer, token is a
// 32-bit big-endian length followed by that many bytes):
//
//	CmdWrite           count(pairs) (key value)*
//	CmdDelete          count(keys) key*
//	CmdRead            count(keys) key*
//	CmdUse             name
//	CmdCurrentDB       -
//	CmdListDB          -
//	CmdDetach          name
//	CmdRangeBegin      count(page size)
//	CmdRangeEnd        count(page size)
//	CmdRangeFromAsc    count(page size) key
//	CmdRangeFromAscEx  count(page size) key
//	CmdRangeFromDesc   count(page size) key
//	CmdRangeFromDescEx count(page size) key
const (
	// CmdWrite stores one or more key/value pairs.
	// Response: OK or ERROR.
	CmdWrite CmdType = 0x01

	// CmdDelete removes one or more keys.
	// Response: OK or ERROR.
	CmdDelete CmdType = 0x02

	// CmdRead fetches one or more keys.
	// Response: TOKENS parallel to the request keys (null for missing keys), or ERROR.
	CmdRead CmdType = 0x03

	// CmdUse selects (and attaches) a database for the connection.
	// Response: OK or ERROR.
	CmdUse CmdType = 0x04

	// CmdCurrentDB returns the database selected on the connection.
	// Response: TOKEN or ERROR.
	CmdCurrentDB CmdType = 0x05

	// CmdListDB lists the databases currently attached on the server.
	// Response: TOKENS or ERROR.
	CmdListDB CmdType = 0x06

	// CmdDetach detaches a database on the server.
	// Response: OK or ERROR.
	CmdDetach CmdType = 0x07

	// CmdRangeBegin returns up to page size pairs from the first key.
	// Response: PAIRS or ERROR.
	CmdRangeBegin CmdType = 0x08

	// CmdRangeEnd returns up to page size pairs from the last key, descending.
	CmdRangeEnd CmdType = 0x09

	// CmdRangeFromAsc returns pairs from the given key (included), ascending.
	CmdRangeFromAsc CmdType = 0x0A

	// CmdRangeFromAscEx returns pairs after the given key (excluded), ascending.
	CmdRangeFromAscEx CmdType = 0x0B

	// CmdRangeFromDesc returns pairs from the given key (included), descending.
	CmdRangeFromDesc CmdType = 0x0C

	// CmdRangeFromDescEx returns pairs before the given key (excluded), descending.
	CmdRangeFromDescEx CmdType = 0x0D
)

// Response codes
const (
	// RespOK carries a text message token.
	RespOK RespType = 0x55

	// RespError carries a text message token. It signals an application error;
	// the connection stays usable.
	RespError RespType = 0x56

	// RespToken carries a single (possibly null) token.
	RespToken RespType = 0x57

	// RespTokens carries a count followed by that many tokens.
	RespTokens RespType = 0x58

	// RespPairs carries a count of pairs followed by key/value tokens.
	RespPairs RespType = 0x59
)

var cmdNames = map[CmdType]string{
	CmdWrite:           "WRITE",
	CmdDelete:          "DELETE",
	CmdRead:            "READ",
	CmdUse:             "USE",
	CmdCurrentDB:       "CURRENT_DB",
	CmdListDB:          "LIST_DB",
	CmdDetach:          "DETACH",
	CmdRangeBegin:      "RANGE_BEGIN",
	CmdRangeEnd:        "RANGE_END",
	CmdRangeFromAsc:    "RANGE_FROM_ASC",
	CmdRangeFromAscEx:  "RANGE_FROM_ASC_EX",
	CmdRangeFromDesc:   "RANGE_FROM_DESC",
	CmdRangeFromDescEx: "RANGE_FROM_DESC_EX",
}

var respNames = map[RespType]string{
	RespOK:     "OK",
	RespError:  "ERROR",
	RespToken:  "TOKEN",
	RespTokens: "TOKENS",
	RespPairs:  "PAIRS",
}

func (c CmdType) String() string {
	if name, ok := cmdNames[c]; ok {
		return name
	}
	return "CMD(0x" + hexByte(byte(c)) + ")"
}

// Valid reports whether c is a registered command.
func (c CmdType) Valid() bool {
	_, ok := cmdNames[c]
	return ok
}

// IsRange reports whether c is one of the RANGE_* commands.
func (c CmdType) IsRange() bool {
	return c >= CmdRangeBegin && c <= CmdRangeFromDescEx
}

func (r RespType) String() string {
	if name, ok := respNames[r]; ok {
		return name
	}
	return "RESP(0x" + hexByte(byte(r)) + ")"
}

// Valid reports whether r is a registered response.
func (r RespType) Valid() bool {
	_, ok := respNames[r]
	return ok
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}
