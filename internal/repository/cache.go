package repository

import (
	"context"
	"sync"

	"github.com/Divoolej/prtrade/internal/models"
)

// SnapshotCache — бэкенд хранения материализованного снапшота кеша.
// Read сообщает признак "снапшот материализован": пустой, но
// материализованный снапшот и холодный кеш — разные состояния.
type SnapshotCache interface {
	Read(ctx context.Context) (models.Snapshot, bool, error)
	Write(ctx context.Context, snapshot models.Snapshot) error
	Delete(ctx context.Context) error
}

// MemoryCache хранит снапшот в памяти процесса. Бэкенд по умолчанию.
type MemoryCache struct {
	mu           sync.RWMutex
	snapshot     models.Snapshot
	materialized bool
}

// NewMemoryCache возвращает пустой (холодный) кеш в памяти.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Read возвращает копию снапшота, чтобы читатели не делили карты с писателями.
func (c *MemoryCache) Read(_ context.Context) (models.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.materialized {
		return nil, false, nil
	}
	return c.snapshot.Clone(), true, nil
}

// Write атомарно подменяет снапшот целиком.
func (c *MemoryCache) Write(_ context.Context, snapshot models.Snapshot) error {
	clone := snapshot.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = clone
	c.materialized = true
	return nil
}

// Delete сбрасывает кеш в холодное состояние.
func (c *MemoryCache) Delete(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.materialized = false
	return nil
}
