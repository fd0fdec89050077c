package registry

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nite-coder/ccipgate/pkg/abi"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/namehash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	aliceOwner   = common.HexToAddress("0x000000000000000000000000000000000000AAAA")
)

type fakeNode struct {
	status int
	rpcErr *RPCError
	owners map[string]common.Address
	texts  map[string]string
	logs   []map[string]any
	txs    map[common.Hash][]byte
	calls  atomic.Int32
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		owners: map[string]common.Address{"alice": aliceOwner},
		texts:  map[string]string{"alice/ai.topics": "web3,ai"},
		txs:    map[common.Hash][]byte{},
	}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls.Add(1)
	if n.status != 0 {
		w.WriteHeader(n.status)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := sonic.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	reply := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case n.rpcErr != nil:
		reply["error"] = n.rpcErr
	case req.Method == "eth_call":
		var args struct {
			To   common.Address `json:"to"`
			Data hexutil.Bytes  `json:"data"`
		}
		_ = sonic.Unmarshal(req.Params[0], &args)
		reply["result"] = hexutil.Bytes(n.ethCall(args.Data))
	case req.Method == "eth_getLogs":
		reply["result"] = n.logs
	case req.Method == "eth_getTransactionByHash":
		var hash common.Hash
		_ = sonic.Unmarshal(req.Params[0], &hash)
		if input, ok := n.txs[hash]; ok {
			reply["result"] = map[string]any{"hash": hash, "to": testContract, "input": hexutil.Bytes(input)}
		} else {
			reply["result"] = nil
		}
	}

	out, _ := sonic.Marshal(reply)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (n *fakeNode) ethCall(data []byte) []byte {
	username, _ := abi.DecodeFirstStringArg(data)
	owner, exists := n.owners[username]

	switch abi.Selector(data[:4]) {
	case abi.SelectorGetAddress:
		return abi.EncodeAddress(owner)
	case abi.SelectorGetText:
		return abi.EncodeString(n.texts[username+"/"+secondStringArg(data)])
	case abi.SelectorGetProfile:
		return abi.EncodeProfile(owner, username, exists)
	}
	return nil
}

func secondStringArg(data []byte) string {
	params := data[4:]
	offset := binary.BigEndian.Uint64(params[56:64])
	length := binary.BigEndian.Uint64(params[offset+24 : offset+32])
	return string(params[offset+32 : offset+32+length])
}

func newTestClient(t *testing.T, maxFails uint, urls ...string) *RPCClient {
	client, err := NewRPCClient(config.RegistryOptions{
		Contract:       testContract.Hex(),
		Endpoints:      urls,
		Timeout:        time.Second,
		MaxFails:       maxFails,
		FailTimeout:    time.Minute,
		EventSignature: config.DefaultEventSignature,
	})
	require.NoError(t, err)
	return client
}

func TestRPCClientReads(t *testing.T) {
	node := newFakeNode()
	srv := httptest.NewServer(node)
	defer srv.Close()

	client := newTestClient(t, 0, srv.URL)
	ctx := context.Background()

	addr, err := client.GetAddress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, aliceOwner, addr)

	text, err := client.GetText(ctx, "alice", "ai.topics")
	require.NoError(t, err)
	assert.Equal(t, "web3,ai", text)

	text, err = client.GetText(ctx, "alice", "missing")
	require.NoError(t, err)
	assert.Equal(t, "", text)

	profile, err := client.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, profile.Exists)
	assert.Equal(t, aliceOwner, profile.Owner)
	assert.Equal(t, "alice", profile.Username)

	profile, err = client.GetProfile(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, profile.Exists)
}

func TestRPCClientFailover(t *testing.T) {
	bad := newFakeNode()
	bad.status = http.StatusServiceUnavailable
	badSrv := httptest.NewServer(bad)
	defer badSrv.Close()

	good := newFakeNode()
	goodSrv := httptest.NewServer(good)
	defer goodSrv.Close()

	client := newTestClient(t, 1, badSrv.URL, goodSrv.URL)
	ctx := context.Background()

	addr, err := client.GetAddress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, aliceOwner, addr)
	assert.Equal(t, int32(1), bad.calls.Load())
	assert.False(t, client.Endpoints()[0].IsAvailable())

	_, err = client.GetAddress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(1), bad.calls.Load(), "unavailable endpoint is skipped")
	assert.Equal(t, int32(2), good.calls.Load())
}

func TestRPCClientTransportFailover(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	good := newFakeNode()
	goodSrv := httptest.NewServer(good)
	defer goodSrv.Close()

	client := newTestClient(t, 3, closedURL, goodSrv.URL)

	profile, err := client.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, profile.Exists)
}

func TestRPCClientReverted(t *testing.T) {
	reverting := newFakeNode()
	reverting.rpcErr = &RPCError{Code: 3, Message: "execution reverted: unknown user"}
	revertSrv := httptest.NewServer(reverting)
	defer revertSrv.Close()

	good := newFakeNode()
	goodSrv := httptest.NewServer(good)
	defer goodSrv.Close()

	client := newTestClient(t, 1, revertSrv.URL, goodSrv.URL)

	_, err := client.GetAddress(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrReverted)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(0), good.calls.Load())
	assert.True(t, client.Endpoints()[0].IsAvailable(), "a revert is not an endpoint failure")
}

func TestRPCClientUnavailable(t *testing.T) {
	node := newFakeNode()
	node.rpcErr = &RPCError{Code: -32005, Message: "limit exceeded"}
	srv := httptest.NewServer(node)
	defer srv.Close()

	other := newFakeNode()
	other.status = http.StatusBadGateway
	otherSrv := httptest.NewServer(other)
	defer otherSrv.Close()

	client := newTestClient(t, 1, srv.URL, otherSrv.URL)

	_, err := client.GetProfile(context.Background(), "alice")
	require.ErrorIs(t, err, ErrUnavailable)

	var rpcErr *RPCError
	assert.False(t, errors.As(err, &rpcErr), "last error is the http failure")

	_, err = client.GetProfile(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), node.calls.Load())
	assert.Equal(t, int32(1), other.calls.Load())
}

func TestRPCClientContextCanceled(t *testing.T) {
	node := newFakeNode()
	srv := httptest.NewServer(node)
	defer srv.Close()

	client := newTestClient(t, 1, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetAddress(ctx, "alice")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, client.Endpoints()[0].IsAvailable())
}

func TestRegistrationLogs(t *testing.T) {
	node := newFakeNode()
	txHash := common.HexToHash("0x01")
	removedHash := common.HexToHash("0x02")
	topic := common.BytesToHash(namehash.Keccak256([]byte(config.DefaultEventSignature)))

	node.logs = []map[string]any{
		{"transactionHash": txHash, "blockNumber": "0x10", "topics": []common.Hash{topic}, "removed": false},
		{"transactionHash": removedHash, "blockNumber": "0x11", "topics": []common.Hash{topic}, "removed": true},
	}
	input := abi.EncodeCall(abi.Selector(namehash.FuncSelector(config.DefaultRegisterSignature)), "alice", "{}")
	node.txs[txHash] = input

	srv := httptest.NewServer(node)
	defer srv.Close()

	client := newTestClient(t, 0, srv.URL)
	ctx := context.Background()

	logs, err := client.RegistrationLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, txHash, logs[0].TxHash)
	assert.Equal(t, uint64(16), logs[0].BlockNumber)

	got, err := client.TransactionInput(ctx, txHash)
	require.NoError(t, err)
	assert.Equal(t, input, got)

	username, err := abi.DecodeFirstStringArg(got)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = client.TransactionInput(ctx, removedHash)
	assert.ErrorIs(t, err, ErrTxNotFound)
}

func TestNewRPCClient(t *testing.T) {
	_, err := NewRPCClient(config.RegistryOptions{Contract: "0x1", Endpoints: []string{"http://127.0.0.1:8545"}})
	assert.Error(t, err)

	_, err = NewRPCClient(config.RegistryOptions{Contract: testContract.Hex()})
	assert.Error(t, err)

	client, err := NewRPCClient(config.RegistryOptions{
		Contract:  testContract.Hex(),
		Endpoints: []string{"https://rpc.example.org/v1/secret-key"},
	})
	require.NoError(t, err)
	assert.Equal(t, testContract, client.Contract())
	assert.Equal(t, "rpc.example.org", client.Endpoints()[0].Host())
}
