package lock

import (
	"context"
	"sync"
)

// Locker serializes work on a key. The returned release func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// ItemKey builds the lock key of an item.
func ItemKey(tenantID, itemID string) string {
	return tenantID + ":" + itemID
}

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

// LocalLocker is an in-process keyed mutex. Different keys never contend and
// idle keys are dropped once nobody holds or waits for them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

// NewLocalLocker creates a new in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyedMutex)}
}

// Lock blocks until key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	km, ok := l.locks[key]
	if !ok {
		km = &keyedMutex{}
		l.locks[key] = km
	}
	km.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		km.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		var once sync.Once
		return func() { once.Do(func() { l.unlock(key, km) }) }, nil
	case <-ctx.Done():
		// the waiter goroutine still takes the mutex; hand it straight back
		go func() {
			<-acquired
			l.unlock(key, km)
		}()
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) unlock(key string, km *keyedMutex) {
	km.mu.Unlock()

	l.mu.Lock()
	km.refs--
	if km.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// size reports how many keys are tracked
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
