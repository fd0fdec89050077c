package abi

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

const (
	WordSize = 32

	// RequestHeaderSize is the node followed by the selector.
	RequestHeaderSize = WordSize + 4
)

// Request is a decoded resolution payload.
type Request struct {
	Node     common.Hash
	Selector Selector
	// Key is only set for text lookups.
	Key string
}

func (r *Request) Method() Method {
	return r.Selector.Method()
}

// DecodeRequest parses `node(32) | selector(4) | params`. params is the ABI argument block of the
// selected function and offsets inside it are relative to its first byte.
func DecodeRequest(payload []byte) (*Request, error) {
	if len(payload) < RequestHeaderSize {
		return nil, newDecodeError("payload is %d bytes; at least %d required", len(payload), RequestHeaderSize)
	}

	req := &Request{
		Node: common.BytesToHash(payload[:WordSize]),
	}
	copy(req.Selector[:], payload[WordSize:RequestHeaderSize])

	params := payload[RequestHeaderSize:]

	switch req.Selector.Method() {
	case MethodText:
		// text(bytes32 node, string key)
		if len(params) < 2*WordSize {
			return nil, newDecodeError("text params are %d bytes; at least %d required", len(params), 2*WordSize)
		}
		offset, ok := readUint(params[WordSize : 2*WordSize])
		if !ok {
			return nil, newDecodeError("key offset overflows")
		}
		key, err := readString(params, offset)
		if err != nil {
			return nil, err
		}
		req.Key = key
	default:
	}

	return req, nil
}

// EncodeRequest builds a payload accepted by DecodeRequest.
func EncodeRequest(node common.Hash, sel Selector, args ...string) []byte {
	buf := make([]byte, 0, RequestHeaderSize+WordSize*(2+2*len(args)))
	buf = append(buf, node[:]...)
	buf = append(buf, sel[:]...)
	buf = append(buf, node[:]...)
	return append(buf, encodeStrings(WordSize, args)...)
}

// EncodeAddress returns the 32-byte ABI word of an address result.
func EncodeAddress(addr common.Address) []byte {
	word := make([]byte, WordSize)
	copy(word[WordSize-common.AddressLength:], addr[:])
	return word
}

// EncodeString returns the ABI encoding of a single string return value.
func EncodeString(s string) []byte {
	return encodeStrings(0, []string{s})
}

// EncodeCall encodes a call whose parameters are all strings.
func EncodeCall(sel Selector, args ...string) []byte {
	buf := make([]byte, 0, 4+WordSize*2*len(args))
	buf = append(buf, sel[:]...)
	return append(buf, encodeStrings(0, args)...)
}

// DecodeAddress reads an address result word.
func DecodeAddress(data []byte) (common.Address, error) {
	if len(data) < WordSize {
		return common.Address{}, newDecodeError("address result is %d bytes", len(data))
	}
	for _, b := range data[:WordSize-common.AddressLength] {
		if b != 0 {
			return common.Address{}, newDecodeError("address word has dirty high bytes")
		}
	}
	return common.BytesToAddress(data[WordSize-common.AddressLength : WordSize]), nil
}

// DecodeString reads a single string return value.
func DecodeString(data []byte) (string, error) {
	if len(data) < WordSize {
		return "", newDecodeError("string result is %d bytes", len(data))
	}
	offset, ok := readUint(data[:WordSize])
	if !ok {
		return "", newDecodeError("string offset overflows")
	}
	return readString(data, offset)
}

// DecodeProfile reads `(address owner, string username, bool exists)`. A struct return value, which
// is prefixed with its own offset word, is accepted as well.
func DecodeProfile(data []byte) (owner common.Address, username string, exists bool, err error) {
	if len(data) >= 4*WordSize {
		if first, ok := readUint(data[:WordSize]); ok && first == WordSize {
			data = data[WordSize:]
		}
	}

	if len(data) < 3*WordSize {
		return owner, "", false, newDecodeError("profile result is %d bytes", len(data))
	}

	owner, err = DecodeAddress(data[:WordSize])
	if err != nil {
		return owner, "", false, err
	}

	offset, ok := readUint(data[WordSize : 2*WordSize])
	if !ok {
		return owner, "", false, newDecodeError("username offset overflows")
	}
	username, err = readString(data, offset)
	if err != nil {
		return owner, "", false, err
	}

	flag, ok := readUint(data[2*WordSize : 3*WordSize])
	if !ok || flag > 1 {
		return owner, "", false, newDecodeError("exists flag is not a bool")
	}

	return owner, username, flag == 1, nil
}

// EncodeProfile is the inverse of DecodeProfile for the flat tuple layout.
func EncodeProfile(owner common.Address, username string, exists bool) []byte {
	head := make([]byte, 3*WordSize)
	copy(head[WordSize-common.AddressLength:WordSize], owner[:])
	putUint(head[WordSize:2*WordSize], 3*WordSize)
	if exists {
		putUint(head[2*WordSize:], 1)
	}
	return append(head, encodeStrings(0, []string{username})[WordSize:]...)
}

// DecodeFirstStringArg returns the first argument of a call whose first parameter is a string.
func DecodeFirstStringArg(input []byte) (string, error) {
	if len(input) < 4+WordSize {
		return "", newDecodeError("call input is %d bytes", len(input))
	}
	params := input[4:]
	offset, ok := readUint(params[:WordSize])
	if !ok {
		return "", newDecodeError("argument offset overflows")
	}
	return readString(params, offset)
}

// encodeStrings writes the head (offsets) and tails of string arguments. base is the size of the
// static words already written in the same parameter block.
func encodeStrings(base int, args []string) []byte {
	headSize := WordSize * len(args)
	tailSize := 0
	for _, arg := range args {
		tailSize += WordSize + padded(len(arg))
	}

	buf := make([]byte, headSize+tailSize)
	offset := base + headSize
	cursor := headSize
	for i, arg := range args {
		putUint(buf[i*WordSize:(i+1)*WordSize], uint64(offset))
		putUint(buf[cursor:cursor+WordSize], uint64(len(arg)))
		copy(buf[cursor+WordSize:], arg)

		n := WordSize + padded(len(arg))
		cursor += n
		offset += n
	}
	return buf
}

func readString(buf []byte, offset uint64) (string, error) {
	if offset > uint64(len(buf)) || uint64(len(buf))-offset < WordSize {
		return "", newDecodeError("string offset %d is out of range for %d bytes", offset, len(buf))
	}

	length, ok := readUint(buf[offset : offset+WordSize])
	if !ok {
		return "", newDecodeError("string length overflows")
	}

	start := offset + WordSize
	remaining := uint64(len(buf)) - start
	if length > remaining {
		return "", newDecodeError("string declares %d bytes but only %d remain", length, remaining)
	}

	data := buf[start : start+length]
	if !utf8.Valid(data) {
		return "", newDecodeError("string is not valid utf-8")
	}
	return string(data), nil
}

// readUint reads a 32-byte big-endian word that must fit into 64 bits.
func readUint(word []byte) (uint64, bool) {
	for _, b := range word[:WordSize-8] {
		if b != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(word[WordSize-8 : WordSize]), true
}

func putUint(word []byte, v uint64) {
	binary.BigEndian.PutUint64(word[WordSize-8:WordSize], v)
}

func padded(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}
