package lock

import "sync"

// Keyed provides a mutex per key. It serializes read-then-write stock
// mutations for the same product while letting distinct products proceed
// in parallel.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed creates an empty keyed lock set
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use
func (k *Keyed) Lock(key string) {
	k.mutexFor(key).Lock()
}

// Unlock releases the mutex for key
func (k *Keyed) Unlock(key string) {
	k.mutexFor(key).Unlock()
}

// LockAll acquires the mutexes for all keys. Keys must already be sorted by
// the caller so that concurrent multi-key holders cannot deadlock.
func (k *Keyed) LockAll(keys []string) {
	for _, key := range keys {
		k.Lock(key)
	}
}

// UnlockAll releases the mutexes for all keys
func (k *Keyed) UnlockAll(keys []string) {
	for _, key := range keys {
		k.Unlock(key)
	}
}

func (k *Keyed) mutexFor(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
