// Package lock serializes reindex runs that target the same index name.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock could not be obtained before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Release gives a held lock back.
type Release func(ctx context.Context) error

// Locker grants mutual exclusion per name. Different names never block each other.
type Locker interface {
	Lock(ctx context.Context, name string) (Release, error)
}

// Keyed is an in-process Locker with one mutex per name.
type Keyed struct {
	slots sync.Map // name -> chan struct{}
}

// NewKeyed creates an in-process keyed lock.
func NewKeyed() *Keyed {
	return &Keyed{}
}

// Lock blocks until name is free or ctx is done.
func (k *Keyed) Lock(ctx context.Context, name string) (Release, error) {
	v, _ := k.slots.LoadOrStore(name, make(chan struct{}, 1))
	slot := v.(chan struct{})

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-slot })
		return nil
	}, nil
}
