package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquireLock(t *testing.T) {
	t.Run("creates lock file", func(t *testing.T) {
		dir := t.TempDir()

		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		defer lock.Release()

		data, err := os.ReadFile(filepath.Join(dir, "install.lock"))
		if err != nil {
			t.Fatalf("lock file not created: %v", err)
		}
		if !strings.Contains(string(data), fmt.Sprintf("pid=%d\n", os.Getpid())) {
			t.Errorf("lock data missing pid:\n%s", data)
		}
		if lock.RunID() == "" || !strings.Contains(string(data), "run="+lock.RunID()) {
			t.Errorf("lock data missing run id %q:\n%s", lock.RunID(), data)
		}
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("first AcquireLock failed: %v", err)
		}
		defer lock1.Release()

		if _, err := AcquireLock(context.Background(), dir); !errors.Is(err, ErrLockExists) {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := AcquireLock(ctx, t.TempDir()); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("creates directory if needed", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "state")

		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		defer lock.Release()

		if _, err := os.Stat(dir); err != nil {
			t.Errorf("lock directory not created: %v", err)
		}
	})
}

func TestAcquireLockReclaims(t *testing.T) {
	t.Run("stale without pid", func(t *testing.T) {
		dir := t.TempDir()
		lockPath := filepath.Join(dir, LockFile)
		if err := os.WriteFile(lockPath, []byte("garbage"), 0600); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-2 * StaleLockThreshold)
		if err := os.Chtimes(lockPath, old, old); err != nil {
			t.Fatal(err)
		}

		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("AcquireLock failed on stale lock: %v", err)
		}
		lock.Release()
	})

	t.Run("old lock with live holder is kept", func(t *testing.T) {
		dir := t.TempDir()
		lockPath := filepath.Join(dir, LockFile)
		// The test binary's parent outlives the test
		data := fmt.Sprintf("pid=%d\nrun=other\n", os.Getppid())
		if err := os.WriteFile(lockPath, []byte(data), 0600); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-2 * StaleLockThreshold)
		if err := os.Chtimes(lockPath, old, old); err != nil {
			t.Fatal(err)
		}

		if _, err := AcquireLock(context.Background(), dir); !errors.Is(err, ErrLockExists) {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})

	t.Run("own live lock is kept despite age", func(t *testing.T) {
		dir := t.TempDir()
		first, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		defer first.Release()
		old := time.Now().Add(-2 * StaleLockThreshold)
		if err := os.Chtimes(first.Path(), old, old); err != nil {
			t.Fatal(err)
		}

		if _, err := AcquireLock(context.Background(), dir); !errors.Is(err, ErrLockExists) {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})

	t.Run("holder exited", func(t *testing.T) {
		dir := t.TempDir()
		// pid_max on Linux is at most 2^22, so this pid cannot exist
		if err := os.WriteFile(filepath.Join(dir, LockFile), []byte("pid=99999999\n"), 0600); err != nil {
			t.Fatal(err)
		}

		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("AcquireLock failed on orphaned lock: %v", err)
		}
		lock.Release()
	})

	t.Run("fresh lock without pid is kept", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, LockFile), []byte("garbage"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := AcquireLock(context.Background(), dir); !errors.Is(err, ErrLockExists) {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})
}

func TestLockRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	path := lock.Path()

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file not removed")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}

	again, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	again.Release()
}

func TestLockReleaseKeepsSuccessorLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	path := lock.Path()

	// Another run reclaimed the lock and rewrote it
	successor := "pid=1\nrun=successor\n"
	if err := os.WriteFile(path, []byte(successor), 0600); err != nil {
		t.Fatal(err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("successor lock removed: %v", err)
	}
	if string(data) != successor {
		t.Errorf("lock data = %q, want %q", data, successor)
	}
}
