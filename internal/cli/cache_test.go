package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/pampasroute/pkg/cache"
)

func TestClearFileCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := cc.Set(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	n, got, err := clearFileCache(dir)
	if err != nil {
		t.Fatalf("clearFileCache: %v", err)
	}
	if n != 3 {
		t.Errorf("cleared %d entries, want 3", n)
	}
	if got != dir {
		t.Errorf("dir = %q, want %q", got, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left in cache dir", len(entries))
	}
	if _, ok, _ := cc.Get(ctx, "a"); ok {
		t.Error("entry survived clear")
	}
}

func TestClearFileCacheEmpty(t *testing.T) {
	n, _, err := clearFileCache(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("clearFileCache: %v", err)
	}
	if n != 0 {
		t.Errorf("cleared %d entries, want 0", n)
	}
}
