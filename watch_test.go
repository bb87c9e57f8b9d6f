package folio

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatchDirDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- WatchDir(ctx, dir, 100*time.Millisecond, zap.NewNop(), func() { calls.Add(1) })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "post.md"), []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("onChange called %d times, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WatchDir returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WatchDir did not stop after cancel")
	}
}
