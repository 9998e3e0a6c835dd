package store

import "sync"

// keyLocks serializes writes per (session, glyph) key. Acquisition never
// blocks: a second writer on a held key is rejected so the caller can surface
// "try again" instead of queueing blind overwrites. The table mutex is held
// only for map operations, so unrelated keys do not contend.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyLocks() keyLocks {
	return keyLocks{held: make(map[string]struct{})}
}

// tryAcquire claims key, reporting false when it is already held.
func (l *keyLocks) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// release returns key to the pool. Releasing an unheld key is a no-op.
func (l *keyLocks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
