package keylock

import "sync"

// KeyLock serializes work per int64 key. Every read-check-mutate-write
// sequence on a user record runs under the user's lock so concurrent
// taps from the same user cannot interleave.
type KeyLock struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[int64]*entry)}
}

// Lock acquires the lock for key, blocking until it is available.
func (l *KeyLock) Lock(key int64) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for key. The entry is dropped once no
// goroutine holds or waits on it.
func (l *KeyLock) Unlock(key int64) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		l.mu.Unlock()
		panic("keylock: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}

// Do runs fn while holding the lock for key.
func (l *KeyLock) Do(key int64, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}
