package monitor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"metasweep/internal/config"
	"metasweep/internal/logging"
	"metasweep/internal/metadata"
	"metasweep/internal/monitor"
	"metasweep/internal/notifications"
	"metasweep/internal/tracker"
	"metasweep/internal/watch"
)

type fakeExtractor struct {
	mu      sync.Mutex
	records map[string]metadata.Record
	errs    map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (metadata.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[path]; ok {
		return metadata.Record{}, err
	}
	return f.records[path].Clone(), nil
}

func (f *fakeExtractor) set(path string, record metadata.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[path] = record
}

type notifierCall struct {
	method  string
	relPath string
	summary string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

var _ notifications.Service = (*fakeNotifier)(nil)

func (f *fakeNotifier) record(call notifierCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeNotifier) byMethod(method string) []notifierCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []notifierCall
	for _, call := range f.calls {
		if call.method == method {
			matched = append(matched, call)
		}
	}
	return matched
}

func (f *fakeNotifier) NotifyMonitorStarted(_ context.Context, _, _, _ string) error {
	f.record(notifierCall{method: "started"})
	return nil
}

func (f *fakeNotifier) NotifyMonitorStopped(_ context.Context, _ string) error {
	f.record(notifierCall{method: "stopped"})
	return nil
}

func (f *fakeNotifier) NotifyMetadataFound(_ context.Context, relPath, summary string) error {
	f.record(notifierCall{method: "found", relPath: relPath, summary: summary})
	return nil
}

func (f *fakeNotifier) NotifyCleaned(_ context.Context, relPath string) error {
	f.record(notifierCall{method: "cleaned", relPath: relPath})
	return nil
}

func (f *fakeNotifier) NotifyCleanFailed(_ context.Context, relPath string, _ error) error {
	f.record(notifierCall{method: "clean_failed", relPath: relPath})
	return nil
}

func (f *fakeNotifier) NotifyError(_ context.Context, _ error, _ string) error {
	f.record(notifierCall{method: "error"})
	return nil
}

func (f *fakeNotifier) TestNotification(_ context.Context) error {
	f.record(notifierCall{method: "test"})
	return nil
}

// fakeCleaner strips the extractor's record for the path, mimicking a real
// tool rewriting the file in place.
type fakeCleaner struct {
	extractor *fakeExtractor
	err       error

	mu      sync.Mutex
	cleaned []string
}

func (f *fakeCleaner) Clean(_ context.Context, path string) error {
	f.mu.Lock()
	f.cleaned = append(f.cleaned, path)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.extractor.set(path, metadata.Record{})
	return nil
}

type fixture struct {
	cfg       *config.Config
	extractor *fakeExtractor
	notifier  *fakeNotifier
	mon       *monitor.Monitor
}

func newFixture(t *testing.T, cleanerFor func(*fakeExtractor) *fakeCleaner) *fixture {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "watched")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	extractor := &fakeExtractor{records: map[string]metadata.Record{}, errs: map[string]error{}}
	notifier := &fakeNotifier{}

	seen, err := tracker.New(tracker.NewMemoryStore())
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	t.Cleanup(func() { _ = seen.Close() })

	deps := monitor.Deps{
		Extractor: extractor,
		Tracker:   seen,
		Notifier:  notifier,
	}
	if cleanerFor != nil {
		deps.Cleaner = cleanerFor(extractor)
	}

	mon, err := monitor.New(&cfg, logging.NewNop(), deps)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	return &fixture{cfg: &cfg, extractor: extractor, notifier: notifier, mon: mon}
}

func (f *fixture) addFile(t *testing.T, relPath string, record metadata.Record) string {
	t.Helper()
	path := filepath.Join(f.cfg.Paths.WatchDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	f.extractor.set(path, record)
	return path
}

func TestScanReportsMetadataOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.addFile(t, filepath.Join("sub", "report.pdf"), metadata.Record{"Author": "Jane"})

	summary := f.mon.Scan(context.Background())
	if summary.Scanned != 1 || summary.Detected != 1 {
		t.Fatalf("unexpected first scan summary: %+v", summary)
	}

	found := f.notifier.byMethod("found")
	if len(found) != 1 {
		t.Fatalf("expected one detection notification, got %d", len(found))
	}
	if found[0].relPath != filepath.Join("sub", "report.pdf") {
		t.Fatalf("expected watch-relative path, got %q", found[0].relPath)
	}
	if found[0].summary != "Author: Jane" {
		t.Fatalf("unexpected summary: %q", found[0].summary)
	}

	summary = f.mon.Scan(context.Background())
	if summary.Detected != 0 {
		t.Fatalf("expected rescan to detect nothing new: %+v", summary)
	}
	if len(f.notifier.byMethod("found")) != 1 {
		t.Fatalf("expected no duplicate notification on rescan")
	}
}

func TestScanIgnoresMetadataFreeFiles(t *testing.T) {
	f := newFixture(t, nil)
	f.addFile(t, "plain.txt", metadata.Record{})

	summary := f.mon.Scan(context.Background())
	if summary.Scanned != 1 || summary.Detected != 0 {
		t.Fatalf("unexpected summary for metadata-free file: %+v", summary)
	}
	if len(f.notifier.byMethod("found")) != 0 {
		t.Fatalf("expected no notification for metadata-free file")
	}
}

func TestScanReportsChangedMetadataAgain(t *testing.T) {
	f := newFixture(t, nil)
	path := f.addFile(t, "report.pdf", metadata.Record{"Author": "Jane"})

	f.mon.Scan(context.Background())
	f.extractor.set(path, metadata.Record{"Author": "Bob"})
	summary := f.mon.Scan(context.Background())

	if summary.Detected != 1 {
		t.Fatalf("expected changed metadata to be detected: %+v", summary)
	}
	if len(f.notifier.byMethod("found")) != 2 {
		t.Fatalf("expected a second notification for changed metadata")
	}
}

func TestScanCleansAndSuppressesCleanedState(t *testing.T) {
	var cleaner *fakeCleaner
	f := newFixture(t, func(extractor *fakeExtractor) *fakeCleaner {
		cleaner = &fakeCleaner{extractor: extractor}
		return cleaner
	})
	path := f.addFile(t, "photo.jpg", metadata.Record{"Make": "Canon"})

	summary := f.mon.Scan(context.Background())
	if summary.Detected != 1 || summary.Cleaned != 1 {
		t.Fatalf("unexpected cleaning summary: %+v", summary)
	}
	if len(cleaner.cleaned) != 1 || cleaner.cleaned[0] != path {
		t.Fatalf("expected cleaner to run on %s, got %v", path, cleaner.cleaned)
	}
	if len(f.notifier.byMethod("cleaned")) != 1 {
		t.Fatalf("expected cleaned notification")
	}

	// The stripped state was recorded right after cleaning, so the file's own
	// rewrite must not be reported again.
	summary = f.mon.Scan(context.Background())
	if summary.Detected != 0 || summary.Cleaned != 0 {
		t.Fatalf("expected cleaned file to stay quiet: %+v", summary)
	}
	if len(f.notifier.byMethod("found")) != 1 {
		t.Fatalf("expected no new detection after cleaning")
	}
}

func TestScanReportsCleanFailures(t *testing.T) {
	f := newFixture(t, func(extractor *fakeExtractor) *fakeCleaner {
		return &fakeCleaner{extractor: extractor, err: errors.New("tool exploded")}
	})
	f.addFile(t, "report.pdf", metadata.Record{"Author": "Jane"})

	summary := f.mon.Scan(context.Background())
	if summary.Detected != 1 || summary.CleanFailed != 1 {
		t.Fatalf("unexpected failure summary: %+v", summary)
	}
	if len(f.notifier.byMethod("clean_failed")) != 1 {
		t.Fatalf("expected clean-failure notification")
	}
}

func TestScanTreatsExtractionFailureAsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	path := f.addFile(t, "broken.bin", nil)
	f.extractor.errs[path] = errors.New("unreadable")

	summary := f.mon.Scan(context.Background())
	if summary.Scanned != 1 || summary.Detected != 0 || summary.Errors != 0 {
		t.Fatalf("unexpected summary for failed extraction: %+v", summary)
	}
	if len(f.notifier.byMethod("found")) != 0 {
		t.Fatalf("expected no notification when extraction fails")
	}
}

func TestScanSkipsScratchDirectory(t *testing.T) {
	f := newFixture(t, nil)
	scratch := filepath.Join(f.cfg.ScratchDir(), "staged.jpg")
	if err := os.WriteFile(scratch, []byte("content"), 0o644); err != nil {
		t.Fatalf("write scratch file: %v", err)
	}
	f.extractor.set(scratch, metadata.Record{"Author": "Jane"})

	summary := f.mon.Scan(context.Background())
	if summary.Scanned != 0 {
		t.Fatalf("expected scratch directory to be skipped: %+v", summary)
	}
}

func TestNewRequiresCoreDependencies(t *testing.T) {
	cfg := config.Default()
	if _, err := monitor.New(&cfg, logging.NewNop(), monitor.Deps{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
	if _, err := monitor.New(nil, logging.NewNop(), monitor.Deps{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestRunRequiresDriver(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.mon.Run(context.Background()); err == nil {
		t.Fatalf("expected error when running without a watch driver")
	}
}

// scriptedDriver delivers a fixed set of paths, then blocks until cancelled.
type scriptedDriver struct {
	paths []string
}

func (d *scriptedDriver) Run(ctx context.Context, handle watch.Handler) error {
	for _, path := range d.paths {
		handle(ctx, path)
	}
	<-ctx.Done()
	return nil
}

func TestRunProcessesDriverEventsAndNotifiesLifecycle(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "watched")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	extractor := &fakeExtractor{records: map[string]metadata.Record{}, errs: map[string]error{}}
	notifier := &fakeNotifier{}
	seen, err := tracker.New(tracker.NewMemoryStore())
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	defer seen.Close()

	late := filepath.Join(cfg.Paths.WatchDir, "late.jpg")
	if err := os.WriteFile(late, []byte("content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	extractor.set(late, metadata.Record{"Make": "Canon"})

	ctx, cancel := context.WithCancel(context.Background())
	mon, err := monitor.New(&cfg, logging.NewNop(), monitor.Deps{
		Extractor: extractor,
		Tracker:   seen,
		Notifier:  notifier,
		Driver: &scriptedDriver{
			// Delivered twice: duplicate suppression must hold across the
			// initial scan and the driver stream.
			paths: []string{late, late},
		},
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	cancel()
	if err := mon.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.byMethod("started")) != 1 {
		t.Fatalf("expected start notification")
	}
	if len(notifier.byMethod("stopped")) != 1 {
		t.Fatalf("expected stop notification")
	}
	if len(notifier.byMethod("found")) != 1 {
		t.Fatalf("expected exactly one detection across scan and driver events, got %d", len(notifier.byMethod("found")))
	}
}
