package abi

import (
	"encoding/hex"

	"github.com/nite-coder/ccipgate/pkg/namehash"
)

type Selector [4]byte

type Method int

const (
	MethodUnknown Method = iota
	MethodAddr
	MethodText
)

var (
	SelectorAddr = Selector(namehash.FuncSelector("addr(bytes32)"))
	SelectorText = Selector(namehash.FuncSelector("text(bytes32,string)"))

	// registry reads
	SelectorGetAddress = Selector(namehash.FuncSelector("getAddress(string)"))
	SelectorGetText    = Selector(namehash.FuncSelector("getText(string,string)"))
	SelectorGetProfile = Selector(namehash.FuncSelector("getProfile(string)"))
)

func (s Selector) Method() Method {
	switch s {
	case SelectorAddr:
		return MethodAddr
	case SelectorText:
		return MethodText
	default:
		return MethodUnknown
	}
}

func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (m Method) String() string {
	switch m {
	case MethodAddr:
		return "addr"
	case MethodText:
		return "text"
	default:
		return "unknown"
	}
}
