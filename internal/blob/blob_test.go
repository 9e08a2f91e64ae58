package blob_test

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/blob"
)

func newStore(t *testing.T) *blob.Store {
	t.Helper()
	store, err := blob.NewStore(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func stagedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staged.wav")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write staged file: %v", err)
	}
	return path
}

func TestPutAndExists(t *testing.T) {
	store := newStore(t)
	key := blob.WindowKey("rec-1", 0)

	if err := store.Put(key, stagedFile(t, "window audio")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err := store.Exists(key)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	path, err := store.Path(key)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(data) != "window audio" {
		t.Fatalf("blob content = %q", data)
	}
}

func TestPutConsumesSource(t *testing.T) {
	store := newStore(t)
	src := stagedFile(t, "payload")
	if err := store.Put(blob.WindowKey("rec-2", 1), src); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should be consumed, stat err = %v", err)
	}
}

func TestRemovePrefixDeletesAllWindows(t *testing.T) {
	store := newStore(t)
	for i := 0; i < 3; i++ {
		if err := store.Put(blob.WindowKey("rec-3", i), stagedFile(t, "w")); err != nil {
			t.Fatalf("Put window %d: %v", i, err)
		}
	}

	if err := store.RemovePrefix("rec-3"); err != nil {
		t.Fatalf("RemovePrefix: %v", err)
	}
	ok, err := store.Exists(blob.WindowKey("rec-3", 0))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("expected windows removed")
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := newStore(t)
	for _, key := range []string{"", "../evil", "/abs/path", ".."} {
		if _, err := store.Path(key); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}

func TestWindowKeyFormat(t *testing.T) {
	if got := blob.WindowKey("abc", 7); got != "abc/window_007.wav" {
		t.Fatalf("WindowKey = %q", got)
	}
}
