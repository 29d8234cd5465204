package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wok-dev/wok/internal/wokerr"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Config{Prefix: "wok", Private: true}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); !wokerr.Is(err, wokerr.KindNotFound) {
		t.Fatalf("Load err = %v, want a not_found error", err)
	}
}

func TestFindProjectRootWalksUpward(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, &Config{Prefix: "wok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	found, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	wantRoot, _ := filepath.Abs(root)
	if found != wantRoot {
		t.Fatalf("found = %s, want %s", found, wantRoot)
	}
}

func TestFindProjectRootNotInitialized(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindProjectRoot(dir); err != ErrNotInitialized {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestResolveStateDirHonorsOverride(t *testing.T) {
	t.Setenv("WOK_STATE_DIR", "/tmp/wok-state-test")
	got, err := ResolveStateDir()
	if err != nil {
		t.Fatalf("ResolveStateDir: %v", err)
	}
	if got != "/tmp/wok-state-test" {
		t.Fatalf("got %s", got)
	}
}

func TestResolveStateDirXDGFallback(t *testing.T) {
	t.Setenv("WOK_STATE_DIR", "")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	got, err := ResolveStateDir()
	if err != nil {
		t.Fatalf("ResolveStateDir: %v", err)
	}
	if got != filepath.Join("/tmp/xdg-state", "wok") {
		t.Fatalf("got %s", got)
	}
}
