package abi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/ccipgate/pkg/namehash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	node := namehash.Sum("alice.contx.eth")

	t.Run("addr", func(t *testing.T) {
		req, err := DecodeRequest(EncodeRequest(node, SelectorAddr))
		require.NoError(t, err)
		assert.Equal(t, node, req.Node)
		assert.Equal(t, MethodAddr, req.Method())
		assert.Empty(t, req.Key)
	})

	t.Run("addr header only", func(t *testing.T) {
		payload := append(node.Bytes(), SelectorAddr[:]...)
		req, err := DecodeRequest(payload)
		require.NoError(t, err)
		assert.Equal(t, MethodAddr, req.Method())
	})

	t.Run("text", func(t *testing.T) {
		req, err := DecodeRequest(EncodeRequest(node, SelectorText, "ai.topics"))
		require.NoError(t, err)
		assert.Equal(t, MethodText, req.Method())
		assert.Equal(t, "ai.topics", req.Key)
	})

	t.Run("text with long key", func(t *testing.T) {
		key := strings.Repeat("k", 70)
		req, err := DecodeRequest(EncodeRequest(node, SelectorText, key))
		require.NoError(t, err)
		assert.Equal(t, key, req.Key)
	})

	t.Run("unknown selector decodes", func(t *testing.T) {
		sel := Selector{0xde, 0xad, 0xbe, 0xef}
		req, err := DecodeRequest(EncodeRequest(node, sel))
		require.NoError(t, err)
		assert.Equal(t, MethodUnknown, req.Method())
	})

	t.Run("short payloads never panic", func(t *testing.T) {
		full := EncodeRequest(node, SelectorText, "email")
		for i := 0; i < RequestHeaderSize; i++ {
			_, err := DecodeRequest(full[:i])
			assert.ErrorIs(t, err, ErrDecode, "length %d", i)
		}
	})

	t.Run("every truncation of a text payload fails cleanly", func(t *testing.T) {
		key := "description"
		full := EncodeRequest(node, SelectorText, key)
		for i := RequestHeaderSize; i < RequestHeaderSize+3*WordSize+len(key); i++ {
			assert.NotPanics(t, func() {
				_, err := DecodeRequest(full[:i])
				assert.ErrorIs(t, err, ErrDecode, "length %d", i)
			})
		}
	})

	t.Run("declared key length exceeds buffer", func(t *testing.T) {
		payload := EncodeRequest(node, SelectorText, "url")
		lengthWord := payload[RequestHeaderSize+2*WordSize : RequestHeaderSize+3*WordSize]
		putUint(lengthWord, 1000)

		_, err := DecodeRequest(payload)
		assert.ErrorIs(t, err, ErrDecode)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Contains(t, decodeErr.Reason, "declares 1000 bytes")
	})

	t.Run("key offset out of range", func(t *testing.T) {
		payload := EncodeRequest(node, SelectorText, "url")
		putUint(payload[RequestHeaderSize+WordSize:RequestHeaderSize+2*WordSize], 4096)
		_, err := DecodeRequest(payload)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("huge offset word", func(t *testing.T) {
		payload := EncodeRequest(node, SelectorText, "url")
		payload[RequestHeaderSize+WordSize] = 0xff
		_, err := DecodeRequest(payload)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("invalid utf-8 key", func(t *testing.T) {
		payload := EncodeRequest(node, SelectorText, "ab")
		keyStart := RequestHeaderSize + 3*WordSize
		payload[keyStart] = 0xff
		payload[keyStart+1] = 0xfe
		_, err := DecodeRequest(payload)
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestEncodeAddress(t *testing.T) {
	addr := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	word := EncodeAddress(addr)

	require.Len(t, word, WordSize)
	assert.Equal(t, make([]byte, 12), word[:12])
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 20), word[12:])

	decoded, err := DecodeAddress(word)
	require.NoError(t, err)
	assert.Equal(t, addr, decoded)

	word[0] = 1
	_, err = DecodeAddress(word)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEncodeString(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		length int
	}{
		{name: "empty", input: "", length: 2 * WordSize},
		{name: "short", input: "hello", length: 3 * WordSize},
		{name: "exact word", input: strings.Repeat("x", 32), length: 3 * WordSize},
		{name: "multi chunk", input: strings.Repeat("contx ", 20), length: 2*WordSize + 128},
		{name: "unicode", input: "héllo wörld ✓", length: 3 * WordSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeString(tc.input)
			assert.Len(t, encoded, tc.length)
			assert.Equal(t, byte(0x20), encoded[WordSize-1])

			decoded, err := DecodeString(encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.input, decoded)
		})
	}
}

func TestEncodeCall(t *testing.T) {
	data := EncodeCall(SelectorGetText, "alice", "ai.topics")
	assert.Equal(t, SelectorGetText[:], data[:4])

	params := data[4:]
	first, ok := readUint(params[:WordSize])
	require.True(t, ok)
	assert.Equal(t, uint64(2*WordSize), first)

	second, ok := readUint(params[WordSize : 2*WordSize])
	require.True(t, ok)
	assert.Equal(t, uint64(4*WordSize), second)

	arg, err := DecodeFirstStringArg(data)
	require.NoError(t, err)
	assert.Equal(t, "alice", arg)

	key, err := readString(params, second)
	require.NoError(t, err)
	assert.Equal(t, "ai.topics", key)
}

func TestDecodeProfile(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000b0")

	t.Run("flat tuple", func(t *testing.T) {
		gotOwner, username, exists, err := DecodeProfile(EncodeProfile(owner, "alice", true))
		require.NoError(t, err)
		assert.Equal(t, owner, gotOwner)
		assert.Equal(t, "alice", username)
		assert.True(t, exists)
	})

	t.Run("struct wrapper", func(t *testing.T) {
		prefix := make([]byte, WordSize)
		putUint(prefix, WordSize)
		_, username, exists, err := DecodeProfile(append(prefix, EncodeProfile(owner, "bob", false)...))
		require.NoError(t, err)
		assert.Equal(t, "bob", username)
		assert.False(t, exists)
	})

	t.Run("too short", func(t *testing.T) {
		_, _, _, err := DecodeProfile(make([]byte, WordSize))
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestSelectorMethod(t *testing.T) {
	assert.Equal(t, "0x3b3b57de", SelectorAddr.Hex())
	assert.Equal(t, "0x59d1d43c", SelectorText.Hex())
	assert.Equal(t, "addr", SelectorAddr.Method().String())
	assert.Equal(t, "text", SelectorText.Method().String())
	assert.Equal(t, "unknown", Selector{}.Method().String())
}
