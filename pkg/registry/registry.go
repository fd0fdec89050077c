// Package registry reads profiles from the on-chain username registry.
package registry

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnavailable means no endpoint could serve the call. It is retryable.
	ErrUnavailable = errors.New("registry: unavailable")
	// ErrReverted means the contract call reverted. Retrying will not help.
	ErrReverted = errors.New("registry: execution reverted")
	// ErrTxNotFound is returned by TransactionInput for unknown hashes.
	ErrTxNotFound = errors.New("registry: transaction not found")
)

// Profile is the registry record of a username.
type Profile struct {
	Owner    common.Address
	Username string
	Exists   bool
}

// Client is the read-only view of the registry contract.
type Client interface {
	GetAddress(ctx context.Context, username string) (common.Address, error)
	GetText(ctx context.Context, username, key string) (string, error)
	GetProfile(ctx context.Context, username string) (Profile, error)
}

// RegistrationLog points at the transaction that emitted a registration event.
type RegistrationLog struct {
	TxHash      common.Hash
	BlockNumber uint64
	Topics      []common.Hash
}

// LogSource exposes the chain history needed to recover usernames from registration calls.
type LogSource interface {
	RegistrationLogs(ctx context.Context, fromBlock uint64) ([]RegistrationLog, error)
	TransactionInput(ctx context.Context, hash common.Hash) ([]byte, error)
}
