package namehash

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, _ = h.Write(b)
	}
	return h.Sum(nil)
}

// LabelHash returns keccak256 of a single label.
func LabelHash(label string) common.Hash {
	return common.BytesToHash(Keccak256([]byte(label)))
}

// Sum computes the ENS namehash of a dotted name. The empty name maps to the zero hash.
func Sum(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = Child(node, labels[i])
	}
	return node
}

// Child returns the node of a single label directly under parent.
func Child(parent common.Hash, label string) common.Hash {
	labelHash := LabelHash(label)
	return common.BytesToHash(Keccak256(parent[:], labelHash[:]))
}

// Of returns the node of username under root, e.g. Of("alice", "contx.eth").
func Of(username, root string) common.Hash {
	if root == "" {
		return Sum(username)
	}
	return Sum(username + "." + root)
}

// FuncSelector returns the 4-byte function selector of a canonical signature such as "addr(bytes32)".
func FuncSelector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], Keccak256([]byte(signature)))
	return sel
}
