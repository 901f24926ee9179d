package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"metasweep/internal/cleaner"
	"metasweep/internal/config"
	"metasweep/internal/logging"
	"metasweep/internal/metadata"
	"metasweep/internal/notifications"
	"metasweep/internal/tracker"
	"metasweep/internal/watch"
)

// Deps collects the collaborators the monitor pipeline wires together.
type Deps struct {
	Extractor metadata.Extractor
	Tracker   *tracker.Tracker
	Notifier  notifications.Service
	// Cleaner is nil when automatic cleaning is disabled.
	Cleaner cleaner.Cleaner
	Driver  watch.Driver
}

// Monitor runs the watch pipeline: driver events flow through extraction,
// seen-state tracking, notification, and optional cleaning. Each path is
// processed to completion before the next is handled.
type Monitor struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Deps

	sessionID string
	lockPath  string
	lock      *flock.Flock
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeUnchanged
	outcomeRecorded
	outcomeDetected
	outcomeCleaned
	outcomeCleanFailed
	outcomeError
)

// New constructs a monitor with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Monitor, error) {
	if cfg == nil {
		return nil, errors.New("monitor requires config")
	}
	if deps.Extractor == nil || deps.Tracker == nil || deps.Notifier == nil {
		return nil, errors.New("monitor requires extractor, tracker, and notifier")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "metasweep.lock")
	return &Monitor{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "monitor"),
		deps:      deps,
		sessionID: uuid.NewString(),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// SessionID returns the identifier tagging this monitor run.
func (m *Monitor) SessionID() string {
	return m.sessionID
}

// Run performs an initial full scan and then watches until the context is
// cancelled. Only one monitor may run per log directory at a time.
func (m *Monitor) Run(ctx context.Context) error {
	if m.deps.Driver == nil {
		return errors.New("monitor requires a watch driver")
	}
	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another metasweep monitor is already running (lock %s)", m.lockPath)
	}
	defer func() {
		if unlockErr := m.lock.Unlock(); unlockErr != nil {
			m.logger.Warn("failed to release monitor lock", logging.Error(unlockErr))
		}
	}()

	logger := m.logger.With(logging.String(logging.FieldSessionID, m.sessionID))
	logger.Info("monitor starting",
		logging.String(logging.FieldPath, m.cfg.Paths.WatchDir),
		logging.String(logging.FieldMode, m.cfg.Watch.Mode),
		logging.Bool("cleaning", m.deps.Cleaner != nil),
	)

	if err := m.deps.Notifier.NotifyMonitorStarted(ctx, m.cfg.Paths.WatchDir, m.cfg.Watch.Mode, m.sessionID); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}

	// Files present before the monitor started are observed up front so both
	// modes begin from the same baseline.
	summary := m.Scan(ctx)
	logger.Info("initial scan complete",
		logging.Int("scanned", summary.Scanned),
		logging.Int("detected", summary.Detected),
	)

	runErr := m.deps.Driver.Run(ctx, func(ctx context.Context, path string) {
		m.processPath(ctx, path)
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("watch driver: %w", runErr)
	}

	logger.Info("monitor stopping")
	// The run context is already cancelled during shutdown; use a fresh one
	// so the farewell notification can still go out.
	if err := m.deps.Notifier.NotifyMonitorStopped(context.WithoutCancel(ctx), m.sessionID); err != nil {
		logger.Warn("stop notification failed", logging.Error(err))
	}
	return nil
}

// ScanSummary aggregates the outcomes of a full directory scan.
type ScanSummary struct {
	Scanned     int
	Detected    int
	Cleaned     int
	CleanFailed int
	Errors      int
}

// Scan walks the watched directory once, processing every file through the
// pipeline, and reports what happened.
func (m *Monitor) Scan(ctx context.Context) ScanSummary {
	var summary ScanSummary
	filter := m.Filter()
	_ = watch.Walk(ctx, filter, func(ctx context.Context, path string) {
		summary.Scanned++
		switch m.processPath(ctx, path) {
		case outcomeDetected:
			summary.Detected++
		case outcomeCleaned:
			summary.Detected++
			summary.Cleaned++
		case outcomeCleanFailed:
			summary.Detected++
			summary.CleanFailed++
		case outcomeError:
			summary.Errors++
		}
	})
	return summary
}

// Filter returns the path filter both drivers and scans share.
func (m *Monitor) Filter() watch.Filter {
	return FilterFor(m.cfg)
}

// FilterFor derives the shared path filter from configuration.
func FilterFor(cfg *config.Config) watch.Filter {
	return watch.Filter{
		Root:       cfg.Paths.WatchDir,
		SkipDirs:   []string{cfg.ScratchDir()},
		Recursive:  cfg.Watch.Recursive,
		Extensions: cfg.Watch.Extensions,
	}
}

func (m *Monitor) processPath(ctx context.Context, path string) outcome {
	logger := m.logger.With(
		logging.String(logging.FieldSessionID, m.sessionID),
		logging.String(logging.FieldPath, path),
	)

	if _, err := os.Stat(path); err != nil {
		logger.Debug("file gone before processing; skipped",
			logging.String(logging.FieldEventType, "file_vanished"),
		)
		return outcomeSkipped
	}

	record, err := m.deps.Extractor.Extract(ctx, path)
	if err != nil {
		logger.Warn("metadata extraction failed; treating as empty record",
			logging.Error(err),
			logging.String(logging.FieldEventType, "extract_failed"),
		)
		record = metadata.Record{}
	}

	isNew, err := m.deps.Tracker.Observe(ctx, path, record)
	if err != nil {
		logger.Error("seen-state update failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "track_failed"),
		)
		if notifyErr := m.deps.Notifier.NotifyError(ctx, err, "seen-state tracking"); notifyErr != nil {
			logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		return outcomeError
	}
	if !isNew {
		logger.Debug("metadata state unchanged")
		return outcomeUnchanged
	}

	if record.IsEmpty() {
		// A transition to no metadata (e.g. just cleaned) is tracked but not
		// worth a notification.
		logger.Info("metadata-free state recorded",
			logging.String(logging.FieldEventType, "state_recorded"),
		)
		return outcomeRecorded
	}

	relPath := m.relPath(path)
	logger.Info("metadata detected",
		logging.Int("fields", len(record)),
		logging.String(logging.FieldEventType, "metadata_detected"),
		logging.String(logging.FieldFingerprint, tracker.Fingerprint(record)),
	)

	summary := record.Summary(m.cfg.Notifications.MaxSummaryChars)
	if err := m.deps.Notifier.NotifyMetadataFound(ctx, relPath, summary); err != nil {
		logger.Warn("detection notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notify_failed"),
		)
	}

	if m.deps.Cleaner == nil {
		return outcomeDetected
	}
	return m.cleanPath(ctx, logger, path, relPath)
}

func (m *Monitor) cleanPath(ctx context.Context, logger *slog.Logger, path, relPath string) outcome {
	if err := m.deps.Cleaner.Clean(ctx, path); err != nil {
		logger.Warn("metadata cleaning failed; file left unmodified",
			logging.Error(err),
			logging.String(logging.FieldEventType, "clean_failed"),
		)
		if notifyErr := m.deps.Notifier.NotifyCleanFailed(ctx, relPath, err); notifyErr != nil {
			logger.Warn("clean-failure notification failed", logging.Error(notifyErr))
		}
		return outcomeCleanFailed
	}

	logger.Info("metadata cleaned",
		logging.String(logging.FieldEventType, "cleaned"),
	)
	if err := m.deps.Notifier.NotifyCleaned(ctx, relPath); err != nil {
		logger.Warn("clean notification failed", logging.Error(err))
	}

	// Record the stripped state immediately so the rewrite event the cleaner
	// itself causes is not reported as another change.
	record, err := m.deps.Extractor.Extract(ctx, path)
	if err != nil {
		record = metadata.Record{}
	}
	if _, err := m.deps.Tracker.Observe(ctx, path, record); err != nil {
		logger.Warn("post-clean state update failed", logging.Error(err))
	}
	return outcomeCleaned
}

func (m *Monitor) relPath(path string) string {
	rel, err := filepath.Rel(m.cfg.Paths.WatchDir, path)
	if err != nil {
		return path
	}
	return rel
}
