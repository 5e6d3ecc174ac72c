package segdb

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// keyedLocker is a set of mutexes keyed by definer id whose Lock honors ctx.
type keyedLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{slots: make(map[string]chan struct{})}
}

func (k *keyedLocker) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.slots[key] = ch
	}
	return ch
}

// Lock blocks until key is free or ctx is done.
func (k *keyedLocker) Lock(ctx context.Context, key string) error {
	select {
	case k.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock frees key. It must only be called by the holder.
func (k *keyedLocker) Unlock(key string) {
	<-k.slot(key)
}

// advisoryKey maps a definer id onto the int64 key space of database advisory locks.
func advisoryKey(defID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("segcoalesce:" + defID))
	return int64(h.Sum64())
}

// mysqlLockName returns a GET_LOCK name, which MySQL limits to 64 characters.
func mysqlLockName(defID string) string {
	return fmt.Sprintf("segcoalesce:%016x", uint64(advisoryKey(defID)))
}
