package service

import (
	"sync"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

// keyLock hands out one mutex per inventory key. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
type keyLock struct {
	mu    sync.Mutex
	locks map[domain.InventoryKey]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[domain.InventoryKey]*keyLockEntry)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyLock) Lock(key domain.InventoryKey) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyLockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
