package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryAdapter is a trivial in-process Adapter, useful for tests and for
// deployments that never need to survive a restart.
type MemoryAdapter struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	records   map[string]map[uint64][]byte
	committed map[string]time.Time
}

// NewMemoryAdapter constructs an empty MemoryAdapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		snapshots: make(map[string][]byte),
		records:   make(map[string]map[uint64][]byte),
		committed: make(map[string]time.Time),
	}
}

func (m *MemoryAdapter) Mount(ctx context.Context, indexName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[indexName]; !ok {
		m.records[indexName] = make(map[uint64][]byte)
	}
	return nil
}

func (m *MemoryAdapter) Open(ctx context.Context, indexName string) error  { return nil }
func (m *MemoryAdapter) Close(ctx context.Context, indexName string) error { return nil }

func (m *MemoryAdapter) Destroy(ctx context.Context, indexName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, indexName)
	delete(m.records, indexName)
	delete(m.committed, indexName)
	return nil
}

func (m *MemoryAdapter) Commit(ctx context.Context, indexName string, encoded []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(encoded))
	copy(buf, encoded)
	m.snapshots[indexName] = buf
	m.committed[indexName] = time.Now()
	return nil
}

func (m *MemoryAdapter) Get(ctx context.Context, indexName string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buf, ok := m.snapshots[indexName]
	if !ok {
		return nil, ErrNotCommitted
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func (m *MemoryAdapter) Enrich(ctx context.Context, indexName string, ids []uint64) (map[uint64][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uint64][]byte, len(ids))
	recs := m.records[indexName]
	for _, id := range ids {
		if v, ok := recs[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (m *MemoryAdapter) Has(ctx context.Context, indexName string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.snapshots[indexName]
	return ok, nil
}

func (m *MemoryAdapter) Remove(ctx context.Context, indexName string, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recs, ok := m.records[indexName]; ok {
		delete(recs, id)
	}
	return nil
}

func (m *MemoryAdapter) Clear(ctx context.Context, indexName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[indexName] = make(map[uint64][]byte)
	return nil
}

func (m *MemoryAdapter) Info(ctx context.Context, indexName string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		IndexName:      indexName,
		SizeBytes:      int64(len(m.snapshots[indexName])),
		DocumentCount:  len(m.records[indexName]),
		LastCommitedAt: m.committed[indexName],
	}, nil
}

// PutRecord stores a raw record behind Enrich. It is not part of Adapter;
// FileAdapter and RedisAdapter each have their own PutRecord.
func (m *MemoryAdapter) PutRecord(indexName string, id uint64, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[indexName]; !ok {
		m.records[indexName] = make(map[uint64][]byte)
	}
	m.records[indexName][id] = raw
}
