package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"metasweep/internal/logging"
	"metasweep/internal/watch"
)

func TestNewNotifierValidation(t *testing.T) {
	if _, err := watch.NewNotifier(watch.Filter{}, 0, logging.NewNop()); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestNotifierDeliversCreatedFiles(t *testing.T) {
	root := t.TempDir()
	notifier, err := watch.NewNotifier(watch.Filter{Root: root, Recursive: true}, 0, logging.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	var mu sync.Mutex
	seen := map[string]int{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, func(_ context.Context, path string) {
			mu.Lock()
			seen[path]++
			mu.Unlock()
		})
	}()

	// Give the watcher a moment to register before producing events.
	time.Sleep(50 * time.Millisecond)

	target := filepath.Join(root, "dropped.jpg")
	if err := os.WriteFile(target, []byte("content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[target] > 0
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("notifier run: %v", err)
	}
}

func TestNotifierWatchesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	notifier, err := watch.NewNotifier(watch.Filter{Root: root, Recursive: true}, 0, logging.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	var mu sync.Mutex
	seen := map[string]int{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, func(_ context.Context, path string) {
			mu.Lock()
			seen[path]++
			mu.Unlock()
		})
	}()

	time.Sleep(50 * time.Millisecond)

	nested := filepath.Join(root, "incoming")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	// Allow the new directory watch to be installed.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(nested, "nested.jpg")
	if err := os.WriteFile(target, []byte("content"), 0o644); err != nil {
		t.Fatalf("write nested file: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[target] > 0
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("notifier run: %v", err)
	}
}
