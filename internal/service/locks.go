package service

import "sync"

// applicationLocks serializes concurrent writers to the same application.
// A single logical process owns the mutable state, so an in-process keyed
// mutex is sufficient; two simultaneous transitions on one application must
// not both succeed against a stale read.
type applicationLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newApplicationLocks() *applicationLocks {
	return &applicationLocks{locks: make(map[string]*lockEntry)}
}

// Lock acquires the per-id mutex and returns its release function.
func (l *applicationLocks) Lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
