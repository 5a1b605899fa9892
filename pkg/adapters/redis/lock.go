package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/atlas/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// LockKey is appended to the locker prefix.
const LockKey = "narrative_edit.lock"

// releaseScript deletes the key only if it still holds the value we read.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker implements ports.EditLocker using Redis SET NX.
// The lock value is the JSON encoded ports.LockInfo.
type Locker struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewLocker creates a new Redis locker. A zero ttl keeps the lock until released.
func NewLocker(client *backend.Client, prefix string, ttl time.Duration) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (l *Locker) key() string { return l.prefix + LockKey }

// Acquire sets the lock key if absent.
func (l *Locker) Acquire(ctx context.Context, info ports.LockInfo) error {
	val, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal lock info: %w", err)
	}

	ok, err := l.client.SetNX(ctx, l.key(), val, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if ok {
		return nil
	}

	holder, _, err := l.read(ctx)
	if err != nil {
		return err
	}
	if holder == nil {
		// Expired between SETNX and GET.
		return &ports.LockHeldError{}
	}
	return &ports.LockHeldError{Holder: *holder}
}

// Release deletes the lock key, refusing a different agent's lock unless forced.
func (l *Locker) Release(ctx context.Context, agent string, force bool) error {
	holder, raw, err := l.read(ctx)
	if err != nil {
		return err
	}
	if holder == nil {
		return nil
	}
	if !force && agent != "" && holder.Agent != agent {
		return fmt.Errorf("%w: %s", ports.ErrNotOwner, holder)
	}

	n, err := l.client.Eval(ctx, releaseScript, []string{l.key()}, raw).Int()
	if err != nil {
		return fmt.Errorf("redis error releasing lock: %w", err)
	}
	if n == 0 {
		// Someone else took the lock after our read.
		return fmt.Errorf("%w: lock changed during release", ports.ErrNotOwner)
	}
	return nil
}

// Status returns the current holder, or nil when the key is absent.
func (l *Locker) Status(ctx context.Context) (*ports.LockInfo, error) {
	holder, _, err := l.read(ctx)
	return holder, err
}

func (l *Locker) read(ctx context.Context) (*ports.LockInfo, string, error) {
	raw, err := l.client.Get(ctx, l.key()).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("redis error reading lock: %w", err)
	}
	var info ports.LockInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, "", fmt.Errorf("corrupt lock value at %s: %w", l.key(), err)
	}
	return &info, raw, nil
}
