package registry

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type logFilter struct {
	Address   common.Address `json:"address"`
	FromBlock string         `json:"fromBlock"`
	ToBlock   string         `json:"toBlock"`
	Topics    []common.Hash  `json:"topics,omitempty"`
}

type rpcLog struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	Topics      []common.Hash  `json:"topics"`
	Removed     bool           `json:"removed"`
}

type rpcTransaction struct {
	Hash  common.Hash     `json:"hash"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
}

// RegistrationLogs returns the registry's event logs from fromBlock to the chain head, filtered
// by the configured event signature when there is one.
func (c *RPCClient) RegistrationLogs(ctx context.Context, fromBlock uint64) ([]RegistrationLog, error) {
	filter := logFilter{
		Address:   c.contract,
		FromBlock: hexutil.EncodeUint64(fromBlock),
		ToBlock:   "latest",
	}
	if c.eventTopic != (common.Hash{}) {
		filter.Topics = []common.Hash{c.eventTopic}
	}

	var logs []rpcLog
	if err := c.call(ctx, "eth_getLogs", []any{filter}, &logs); err != nil {
		return nil, fmt.Errorf("registry: get logs: %w", err)
	}

	result := make([]RegistrationLog, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		result = append(result, RegistrationLog{
			TxHash:      l.TxHash,
			BlockNumber: uint64(l.BlockNumber),
			Topics:      l.Topics,
		})
	}
	return result, nil
}

func (c *RPCClient) TransactionInput(ctx context.Context, hash common.Hash) ([]byte, error) {
	var tx *rpcTransaction
	if err := c.call(ctx, "eth_getTransactionByHash", []any{hash}, &tx); err != nil {
		return nil, fmt.Errorf("registry: get transaction %s: %w", hash.Hex(), err)
	}

	if tx == nil {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash.Hex())
	}

	if tx.To != nil && *tx.To != c.contract {
		return nil, fmt.Errorf("registry: transaction %s was not sent to the registry", hash.Hex())
	}

	return tx.Input, nil
}
