package resolver

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/ccipgate/pkg/abi"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/namehash"
	"github.com/nite-coder/ccipgate/pkg/registry"
)

// EventSource recovers usernames from the input of the transactions that emitted
// registration events. Logs are fetched incrementally from the block after the newest one seen,
// and a transaction is decoded once.
type EventSource struct {
	logs     registry.LogSource
	selector []byte

	mu        sync.Mutex
	nextBlock uint64
	decoded   map[common.Hash]string
	names     []string
}

// NewEventSource scans from fromBlock. registerSignature filters transactions by their
// selector; an empty signature accepts any call whose first argument is a string.
func NewEventSource(logs registry.LogSource, fromBlock uint64, registerSignature string) *EventSource {
	s := &EventSource{
		logs:      logs,
		nextBlock: fromBlock,
		decoded:   map[common.Hash]string{},
	}
	if registerSignature != "" {
		sel := namehash.FuncSelector(registerSignature)
		s.selector = sel[:]
	}
	return s
}

func (s *EventSource) Name() string {
	return TierEvents
}

func (s *EventSource) Candidates(ctx context.Context) ([]string, error) {
	logger := log.FromContext(ctx)

	s.mu.Lock()
	from := s.nextBlock
	s.mu.Unlock()

	entries, err := s.logs.RegistrationLogs(ctx, from)
	if err != nil {
		return nil, err
	}

	next, retryFrom := from, uint64(math.MaxUint64)
	for _, entry := range entries {
		if entry.BlockNumber+1 > next {
			next = entry.BlockNumber + 1
		}

		if s.isDecoded(entry.TxHash) {
			continue
		}

		input, err := s.logs.TransactionInput(ctx, entry.TxHash)
		if err != nil {
			logger.Debug("resolver: fetch registration transaction failed",
				slog.String("tx", entry.TxHash.Hex()),
				slog.String("error", err.Error()),
			)
			retryFrom = min(retryFrom, entry.BlockNumber)
			continue
		}

		if len(s.selector) > 0 && (len(input) < 4 || !bytes.Equal(input[:4], s.selector)) {
			s.store(entry.TxHash, "")
			continue
		}

		username, err := abi.DecodeFirstStringArg(input)
		if err != nil || ValidateUsername(username) != nil {
			logger.Debug("resolver: registration input has no username",
				slog.String("tx", entry.TxHash.Hex()),
			)
			s.store(entry.TxHash, "")
			continue
		}

		s.store(entry.TxHash, username)
	}

	next = min(next, retryFrom)

	s.mu.Lock()
	defer s.mu.Unlock()
	if next > s.nextBlock {
		s.nextBlock = next
	}
	return slices.Clone(s.names), nil
}

func (s *EventSource) isDecoded(hash common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.decoded[hash]
	return ok
}

func (s *EventSource) store(hash common.Hash, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.decoded[hash]; ok {
		return
	}
	s.decoded[hash] = username

	if username != "" && !slices.Contains(s.names, username) {
		s.names = append(s.names, username)
	}
}
