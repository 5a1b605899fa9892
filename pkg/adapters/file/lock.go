package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/atlas/pkg/ports"
)

// DefaultLockName is the lock file created next to the narrative sources.
const DefaultLockName = "narrative_edit.lock"

// Locker implements ports.EditLocker with an exclusively created lock file.
type Locker struct {
	Path string
}

// NewLocker creates a Locker for path.
// If path is empty, it defaults to DefaultLockName in the working directory.
func NewLocker(path string) *Locker {
	if path == "" {
		path = DefaultLockName
	}
	return &Locker{Path: path}
}

// Acquire creates the lock file. It fails with *ports.LockHeldError if the file exists.
func (l *Locker) Acquire(ctx context.Context, info ports.LockInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock info: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return fmt.Errorf("failed to ensure lock directory: %w", err)
	}

	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			holder, readErr := l.read()
			if readErr != nil {
				return readErr
			}
			if holder == nil {
				// Released between our open and read; report as held anyway.
				return &ports.LockHeldError{}
			}
			return &ports.LockHeldError{Holder: *holder}
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(l.Path)
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(l.Path)
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	return nil
}

// Release removes the lock file.
func (l *Locker) Release(ctx context.Context, agent string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	holder, err := l.read()
	if err != nil {
		return err
	}
	if holder == nil {
		return nil
	}
	if !force && agent != "" && holder.Agent != agent {
		return fmt.Errorf("%w: %s", ports.ErrNotOwner, holder)
	}
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Status returns the current holder, or nil when no lock file exists.
func (l *Locker) Status(ctx context.Context) (*ports.LockInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.read()
}

func (l *Locker) read() (*ports.LockInfo, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	var info ports.LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("corrupt lock file %s: %w", l.Path, err)
	}
	return &info, nil
}
