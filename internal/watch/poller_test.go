package watch_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"metasweep/internal/logging"
	"metasweep/internal/watch"
)

func TestNewPollerValidation(t *testing.T) {
	if _, err := watch.NewPoller(watch.Filter{}, time.Second, logging.NewNop()); err == nil {
		t.Fatalf("expected error for missing root")
	}
	if _, err := watch.NewPoller(watch.Filter{Root: t.TempDir()}, 0, logging.NewNop()); err == nil {
		t.Fatalf("expected error for non-positive interval")
	}
}

func TestPollerDeliversExistingAndNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.jpg"))

	poller, err := watch.NewPoller(watch.Filter{Root: root, Recursive: true}, 20*time.Millisecond, logging.NewNop())
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}

	var mu sync.Mutex
	seen := map[string]int{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx, func(_ context.Context, path string) {
			mu.Lock()
			seen[path]++
			mu.Unlock()
		})
	}()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[filepath.Join(root, "existing.jpg")] > 0
	})

	writeFile(t, filepath.Join(root, "late.jpg"))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[filepath.Join(root, "late.jpg")] > 0
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("poller run: %v", err)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	poller, err := watch.NewPoller(watch.Filter{Root: t.TempDir()}, 10*time.Millisecond, logging.NewNop())
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx, func(context.Context, string) {})
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not stop after cancellation")
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
