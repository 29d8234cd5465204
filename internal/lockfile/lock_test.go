package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openLock(t *testing.T, dir string) *os.File {
	t.Helper()
	path := filepath.Join(dir, "daemon.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("open lock file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAcquireExclusiveSucceedsOnce(t *testing.T) {
	dir := t.TempDir()
	f := openLock(t, dir)

	if err := AcquireExclusive(f); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := Release(f); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestAcquireExclusiveFailsWhenHeld(t *testing.T) {
	dir := t.TempDir()
	holder := openLock(t, dir)
	if err := AcquireExclusive(holder); err != nil {
		t.Fatalf("holder acquire: %v", err)
	}
	defer Release(holder)

	contender := openLock(t, dir)
	err := AcquireExclusive(contender)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
