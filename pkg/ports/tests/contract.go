package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/atlas/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EditLockerContractTest is a reusable test suite that verifies if an adapter complies with ports.EditLocker.
// newLocker must return a locker over fresh, empty storage on every call.
func EditLockerContractTest(t *testing.T, newLocker func(t *testing.T) ports.EditLocker) {
	t.Helper()
	ctx := context.Background()
	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	alice := ports.LockInfo{Agent: "alice", Operation: "merge", Timestamp: stamp, PID: 101}
	bob := ports.LockInfo{Agent: "bob", Operation: "edit", Timestamp: stamp, PID: 202}

	t.Run("Status_Unlocked", func(t *testing.T) {
		l := newLocker(t)
		info, err := l.Status(ctx)
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Acquire_Then_Status", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))

		info, err := l.Status(ctx)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "alice", info.Agent)
		assert.Equal(t, "merge", info.Operation)
		assert.Equal(t, 101, info.PID)
		assert.True(t, stamp.Equal(info.Timestamp))
	})

	t.Run("Acquire_Contended", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))

		err := l.Acquire(ctx, bob)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ports.ErrLocked))

		var held *ports.LockHeldError
		require.True(t, errors.As(err, &held))
		assert.Equal(t, "alice", held.Holder.Agent)
	})

	t.Run("Release_ByOwner", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))
		require.NoError(t, l.Release(ctx, "alice", false))

		info, err := l.Status(ctx)
		require.NoError(t, err)
		assert.Nil(t, info)

		require.NoError(t, l.Acquire(ctx, bob), "lock should be free again")
	})

	t.Run("Release_ByOther_Refused", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))

		err := l.Release(ctx, "bob", false)
		assert.ErrorIs(t, err, ports.ErrNotOwner)

		info, err := l.Status(ctx)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "alice", info.Agent)
	})

	t.Run("Release_Forced", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))
		require.NoError(t, l.Release(ctx, "bob", true))

		info, err := l.Status(ctx)
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Release_AnonymousAgent", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))
		require.NoError(t, l.Release(ctx, "", false))

		info, err := l.Status(ctx)
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("Release_WhenUnlocked", func(t *testing.T) {
		l := newLocker(t)
		assert.NoError(t, l.Release(ctx, "alice", false))
	})

	t.Run("AcquireWait_Timeout", func(t *testing.T) {
		l := newLocker(t)
		require.NoError(t, l.Acquire(ctx, alice))

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		err := ports.AcquireWait(waitCtx, l, bob, 10*time.Millisecond)
		assert.ErrorIs(t, err, ports.ErrLocked)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
