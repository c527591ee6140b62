// Package transaction guards an install run with an on-disk lock so two
// installers never work on the same host at once.
package transaction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	// StaleLockThreshold is the age after which a lock with no readable holder
	// pid is considered stale.
	StaleLockThreshold = 10 * time.Minute

	// LockFile is the lock's file name inside the lock directory.
	LockFile = "install.lock"
)

// ErrLockExists is returned when another run holds the lock.
var ErrLockExists = errors.New("install lock exists: another install may be in progress")

// Lock is a held install lock.
type Lock struct {
	path  string
	file  *os.File
	runID string
}

// AcquireLock takes the install lock in dir. A lock whose holder process
// has exited is reclaimed once; a lock with a live holder is never taken,
// however old. Only a lock without a usable pid falls back to the
// StaleLockThreshold age rule. Creation uses O_CREATE|O_EXCL so only one
// caller can win.
func AcquireLock(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, LockFile)

	file, err := create(lockPath)
	if os.IsExist(err) {
		if !reclaimable(ctx, lockPath) {
			return nil, ErrLockExists
		}
		os.Remove(lockPath)
		file, err = create(lockPath)
		if os.IsExist(err) {
			return nil, ErrLockExists
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	runID := uuid.NewString()
	lockData := fmt.Sprintf("pid=%d\nrun=%s\ntimestamp=%s\n", os.Getpid(), runID, time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file, runID: runID}, nil
}

func create(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
}

// RunID identifies the run holding the lock.
func (l *Lock) RunID() string {
	return l.runID
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release releases the lock. The file is only removed while it still
// carries this run's ID, so a run whose lock was reclaimed cannot delete
// its successor's. It is safe to call more than once.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		path := l.path
		l.path = ""
		if holderRunID(path) != l.runID {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
	}
	return nil
}

// reclaimable reports whether an existing lock may be taken over.
func reclaimable(ctx context.Context, lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}

	if pid, ok := holderPID(lockPath); ok {
		if pid == os.Getpid() {
			return false
		}
		exists, err := process.PidExistsWithContext(ctx, int32(pid))
		if err == nil {
			return !exists
		}
	}
	return time.Since(info.ModTime()) > StaleLockThreshold
}

// holderPID reads the pid= line of a lock file.
func holderPID(lockPath string) (int, bool) {
	v, ok := lockField(lockPath, "pid")
	if !ok {
		return 0, false
	}
	pid, err := strconv.Atoi(v)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// holderRunID reads the run= line of a lock file, or "" if there is none.
func holderRunID(lockPath string) string {
	v, _ := lockField(lockPath, "run")
	return v
}

func lockField(lockPath, key string) (string, bool) {
	f, err := os.Open(lockPath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v, found := strings.CutPrefix(sc.Text(), key+"="); found {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
