package application

import (
	"sync"

	"github.com/bnema/karmabot/internal/domain"
)

// keyedLocker hands out one mutex per subject. Entries are reference
// counted and dropped once no caller holds or waits on them, so the map
// only grows with the number of subjects in flight.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[domain.Subject]*subjectLock
}

type subjectLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: map[domain.Subject]*subjectLock{}}
}

func (k *keyedLocker) Lock(subject domain.Subject) (unlock func()) {
	k.mu.Lock()
	lock, ok := k.locks[subject]
	if !ok {
		lock = &subjectLock{}
		k.locks[subject] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, subject)
		}
		k.mu.Unlock()
	}
}

func (k *keyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
