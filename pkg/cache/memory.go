package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m *memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryKV implements Service in-process. Used when Redis is disabled and in
// tests; the lock is then only advisory within one process.
type MemoryKV struct {
	mu    sync.Mutex
	data  map[string]*memoryItem
	locks map[string]time.Time
}

// NewMemoryKV creates an in-memory key-value store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data:  make(map[string]*memoryItem),
		locks: make(map[string]time.Time),
	}
}

func (m *MemoryKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		data, err = json.Marshal(value)
		if err != nil {
			return err
		}
	}

	var expireAt time.Time
	if expiration > 0 {
		expireAt = time.Now().Add(expiration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = &memoryItem{data: data, expireAt: expireAt}
	return nil
}

func (m *MemoryKV) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	item, ok := m.data[key]
	if ok && item.expired() {
		delete(m.data, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	if strPtr, isStr := dest.(*string); isStr {
		*strPtr = string(item.data)
		return nil
	}
	return json.Unmarshal(item.data, dest)
}

func (m *MemoryKV) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if until, held := m.locks[key]; held && time.Now().Before(until) {
		return false, nil
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MemoryKV) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

var _ Service = (*MemoryKV)(nil)
