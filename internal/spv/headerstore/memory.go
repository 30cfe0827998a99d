package headerstore

import (
	"context"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

// MemoryBackend keeps headers in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	byHash map[string]model.BlockHeader
	tip    string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{byHash: make(map[string]model.BlockHeader)}
}

func (m *MemoryBackend) PutHeader(_ context.Context, header model.BlockHeader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[header.Hash] = header
	if tip, ok := m.byHash[m.tip]; !ok || header.Height >= tip.Height {
		m.tip = header.Hash
	}
	return nil
}

func (m *MemoryBackend) HeaderByHash(_ context.Context, hash string) (model.BlockHeader, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byHash[hash]
	return h, ok, nil
}

func (m *MemoryBackend) TipHeader(_ context.Context) (model.BlockHeader, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byHash[m.tip]
	return h, ok, nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
