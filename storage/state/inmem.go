package state

import "sync"

type memStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ Store = (*memStore)(nil)

// OpenMem returns an in-memory store, used in tests and as a fallback
// when no state path is configured.
func OpenMem() Store {
	return &memStore{entries: make(map[string]string)}
}

func (ms *memStore) Get(key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	val, ok := ms.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (ms *memStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[key] = value
	return nil
}

func (ms *memStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}
