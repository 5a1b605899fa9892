package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLocked is matched by the error returned when another agent holds
	// the edit lock.
	ErrLocked = errors.New("narrative edit lock is held")
	// ErrNotOwner is returned when releasing a lock held by another agent
	// without force.
	ErrNotOwner = errors.New("narrative edit lock is held by another agent")
)

// LockInfo is the payload stored with the edit lock.
type LockInfo struct {
	Agent     string    `json:"agent"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	PID       int       `json:"pid"`
}

func (l LockInfo) String() string {
	return fmt.Sprintf("%s (%s, pid %d, since %s)", l.Agent, l.Operation, l.PID, l.Timestamp.Format(time.RFC3339))
}

// LockHeldError reports the current holder of the lock.
type LockHeldError struct {
	Holder LockInfo
}

func (e *LockHeldError) Error() string {
	return "narrative edit lock held by " + e.Holder.String()
}

func (e *LockHeldError) Is(target error) bool { return target == ErrLocked }

// EditLocker serializes edits of the narrative sources between agents.
type EditLocker interface {
	// Acquire takes the lock without waiting.
	// Returns *LockHeldError (matching ErrLocked) if another holder exists.
	Acquire(ctx context.Context, info LockInfo) error

	// Release drops the lock. An empty agent or force releases any holder;
	// otherwise a lock held by a different agent yields ErrNotOwner.
	// Releasing when no lock exists is not an error.
	Release(ctx context.Context, agent string, force bool) error

	// Status returns the current holder, or nil when unlocked.
	Status(ctx context.Context) (*LockInfo, error)
}

// AcquireWait polls Acquire until it succeeds or ctx is done. When ctx ends
// while the lock is held, the error wraps both the last *LockHeldError and
// ctx.Err(), so callers still learn the holder.
func AcquireWait(ctx context.Context, locker EditLocker, info LockInfo, every time.Duration) error {
	if every <= 0 {
		every = 100 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var held error
	for {
		if ctx.Err() != nil {
			return waitExpired(ctx, held)
		}
		err := locker.Acquire(ctx, info)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrLocked):
			held = err
		case ctx.Err() != nil:
			// The backend gave up on the deadline mid-attempt.
			return waitExpired(ctx, held)
		default:
			return err
		}
		select {
		case <-ctx.Done():
			return waitExpired(ctx, held)
		case <-ticker.C:
		}
	}
}

func waitExpired(ctx context.Context, held error) error {
	if held == nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %w", held, ctx.Err())
}
