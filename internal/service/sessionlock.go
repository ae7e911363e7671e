package service

import "sync"

// SessionLocker serializes mutating operations per user. Concurrent answer
// submissions for the same user are a correctness hazard: candidate
// generation and judging read session state that a parallel submission would
// be mutating. Operations on different users proceed in parallel.
type SessionLocker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionLocker() *SessionLocker {
	return &SessionLocker{locks: make(map[string]*sessionLock)}
}

// Lock acquires the per-user lock, blocking until it is free. The returned
// function releases it and must be called exactly once, typically deferred.
func (l *SessionLocker) Lock(userID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &sessionLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
