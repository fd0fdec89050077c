package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type memoryRecord struct {
	owner common.Address
	texts map[string]string
}

// MemoryClient is an in-process registry. Err, when set, is returned by every call.
type MemoryClient struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	err     error
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		records: map[string]*memoryRecord{},
	}
}

// Register stores a profile owned by owner with the given text records.
func (m *MemoryClient) Register(username string, owner common.Address, texts map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := &memoryRecord{owner: owner, texts: map[string]string{}}
	for k, v := range texts {
		record.texts[k] = v
	}
	m.records[username] = record
}

func (m *MemoryClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryClient) GetAddress(_ context.Context, username string) (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return common.Address{}, fmt.Errorf("registry: getAddress(%s): %w", username, m.err)
	}
	if record, ok := m.records[username]; ok {
		return record.owner, nil
	}
	return common.Address{}, nil
}

func (m *MemoryClient) GetText(_ context.Context, username, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return "", fmt.Errorf("registry: getText(%s, %s): %w", username, key, m.err)
	}
	if record, ok := m.records[username]; ok {
		return record.texts[key], nil
	}
	return "", nil
}

func (m *MemoryClient) GetProfile(_ context.Context, username string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return Profile{}, fmt.Errorf("registry: getProfile(%s): %w", username, m.err)
	}
	record, ok := m.records[username]
	if !ok {
		return Profile{}, nil
	}
	return Profile{Owner: record.owner, Username: username, Exists: true}, nil
}
