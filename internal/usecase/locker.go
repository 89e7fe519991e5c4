package usecase

import (
	"context"
	"sync"

	"github.com/user/equipment-scraper/internal/repository"
)

// localLocker serializes schema changes per table inside one process.
type localLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker returns an in-process TableLocker.
func NewLocalLocker() repository.TableLocker {
	return &localLocker{slots: make(map[string]chan struct{})}
}

func (l *localLocker) slot(table string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[table]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[table] = s
	}
	return s
}

// Lock blocks until the table's slot is free or ctx is done.
func (l *localLocker) Lock(ctx context.Context, table string) (func(), error) {
	s := l.slot(table)
	select {
	case s <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-s }) }, nil
}
