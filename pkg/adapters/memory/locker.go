package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/atlas/pkg/ports"
)

// Locker implements ports.EditLocker in memory, for single-process use and tests.
type Locker struct {
	mu     sync.Mutex
	holder *ports.LockInfo
}

// NewLocker creates an unlocked Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// Acquire takes the lock if free.
func (l *Locker) Acquire(ctx context.Context, info ports.LockInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != nil {
		return &ports.LockHeldError{Holder: *l.holder}
	}
	held := info
	l.holder = &held
	return nil
}

// Release drops the lock.
func (l *Locker) Release(ctx context.Context, agent string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder == nil {
		return nil
	}
	if !force && agent != "" && l.holder.Agent != agent {
		return fmt.Errorf("%w: %s", ports.ErrNotOwner, l.holder)
	}
	l.holder = nil
	return nil
}

// Status returns a copy of the current holder.
func (l *Locker) Status(ctx context.Context) (*ports.LockInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder == nil {
		return nil, nil
	}
	held := *l.holder
	return &held, nil
}
