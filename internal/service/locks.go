package service

import "sync"

// imageLocks hands out one logical mutex per image id, shared by the
// analyze workflow and both assessment-edit contracts. Without it,
// concurrent re-analysis and manual edits of the same image race on the
// assessment row and the last writer silently wins.
type imageLocks struct {
	mu    sync.Mutex
	locks map[string]*imageLock
}

type imageLock struct {
	mu   sync.Mutex
	refs int
}

// NewImageLocks creates a keyed lock set shared across services
func NewImageLocks() *imageLocks {
	return &imageLocks{locks: make(map[string]*imageLock)}
}

// Acquire blocks until the image's lock is held and returns the release
// function. Entries are reference counted so the map stays bounded.
func (l *imageLocks) Acquire(imageID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[imageID]
	if !ok {
		entry = &imageLock{}
		l.locks[imageID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, imageID)
		}
		l.mu.Unlock()
	}
}
