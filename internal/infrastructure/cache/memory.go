package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory key-value store with expiration.
// It also serves run leases for single-process deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

func (i *memoryItem) expired(now time.Time) bool {
	return now.After(i.expireTime)
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(5 * time.Minute)

	return store
}

// Acquire takes the lease key for owner unless another owner holds an unexpired one
func (ms *MemoryStore) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	if item, ok := ms.items[key]; ok && !item.expired(now) && item.value != owner {
		return false, nil
	}
	ms.items[key] = &memoryItem{value: owner, expireTime: now.Add(ttl)}
	return true, nil
}

// Refresh extends the lease if owner still holds it
func (ms *MemoryStore) Refresh(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	item, ok := ms.items[key]
	if !ok || item.expired(now) || item.value != owner {
		return false, nil
	}
	item.expireTime = now.Add(ttl)
	return true, nil
}

// Release drops the lease if owner holds it
func (ms *MemoryStore) Release(_ context.Context, key, owner string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if item, ok := ms.items[key]; ok && item.value == owner {
		delete(ms.items, key)
	}
	return nil
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, item := range ms.items {
				if item.expired(now) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
