package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/assetledger/internal/usecase"
)

// Locker is a process-local keyed mutex. The ttl is ignored since a crashed
// holder takes the process down with it.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

// Lock waits for key until ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	slot := l.slot(key)

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, usecase.ErrLockHeld
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-slot })
		return nil
	}, nil
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}
