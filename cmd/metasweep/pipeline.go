package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"metasweep/internal/cleaner"
	"metasweep/internal/config"
	"metasweep/internal/deps"
	"metasweep/internal/metadata"
	"metasweep/internal/monitor"
	"metasweep/internal/notifications"
	"metasweep/internal/tracker"
	"metasweep/internal/watch"
)

// runOverrides captures the command-line values that may replace configured
// settings for a single watch or scan invocation.
type runOverrides struct {
	dir      string
	mode     string
	interval int
	clean    bool
	cleanSet bool
	state    string
	stateSet bool
}

// applyOverrides folds command-line overrides into the configuration, then
// verifies the watched directory exists and creates the directories the run
// needs. The watched directory is never created implicitly; pointing the
// monitor at a missing path is treated as a setup mistake.
func applyOverrides(cfg *config.Config, o runOverrides) error {
	if dir := strings.TrimSpace(o.dir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve watch directory: %w", err)
		}
		cfg.Paths.WatchDir = expanded
	}
	if mode := strings.ToLower(strings.TrimSpace(o.mode)); mode != "" {
		cfg.Watch.Mode = mode
	}
	if o.interval > 0 {
		cfg.Watch.PollInterval = o.interval
	}
	if o.cleanSet {
		cfg.Cleaning.Enabled = o.clean
	}
	if o.stateSet {
		state := strings.TrimSpace(o.state)
		if state != "" {
			expanded, err := config.ExpandPath(state)
			if err != nil {
				return fmt.Errorf("resolve state path: %w", err)
			}
			state = expanded
		}
		cfg.Paths.StatePath = state
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	info, err := os.Stat(cfg.Paths.WatchDir)
	if err != nil {
		return fmt.Errorf("watch directory %s does not exist", cfg.Paths.WatchDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", cfg.Paths.WatchDir)
	}

	return cfg.EnsureDirectories()
}

// checkTools verifies the external binaries the run depends on. A missing
// required tool is a startup failure; a missing optional tool is reported to
// the caller through the returned statuses.
func checkTools(cfg *config.Config) ([]deps.Status, error) {
	statuses := deps.CheckBinaries(deps.Requirements(cfg.Cleaning.ExiftoolBinary, cfg.Cleaning.QpdfBinary))
	missing := deps.MissingRequired(statuses)
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, status := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
		return statuses, fmt.Errorf("required tools unavailable: %s", strings.Join(names, ", "))
	}
	return statuses, nil
}

// buildMonitor assembles the pipeline from configuration. The returned tracker
// owns the seen-state store; callers must close it when the run ends. When
// withDriver is false the monitor supports one-shot scans only.
func buildMonitor(cfg *config.Config, logger *slog.Logger, withDriver bool) (*monitor.Monitor, *tracker.Tracker, error) {
	extractor, err := metadata.NewExifTool(cfg.Cleaning.ExiftoolBinary, cfg.Cleaning.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("init extractor: %w", err)
	}

	var store tracker.Store
	if strings.TrimSpace(cfg.Paths.StatePath) != "" {
		sqliteStore, err := tracker.OpenSQLite(cfg.Paths.StatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open state database: %w", err)
		}
		store = sqliteStore
	} else {
		store = tracker.NewMemoryStore()
	}

	seen, err := tracker.New(store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	pipelineDeps := monitor.Deps{
		Extractor: extractor,
		Tracker:   seen,
		Notifier:  notifications.NewService(cfg),
	}

	if cfg.Cleaning.Enabled {
		toolCleaner, err := cleaner.New(cfg.Cleaning.ExiftoolBinary, cfg.Cleaning.QpdfBinary, cfg.Cleaning.Timeout)
		if err != nil {
			_ = seen.Close()
			return nil, nil, fmt.Errorf("init cleaner: %w", err)
		}
		pipelineDeps.Cleaner = toolCleaner
	}

	if withDriver {
		driver, err := newDriver(cfg, logger)
		if err != nil {
			_ = seen.Close()
			return nil, nil, err
		}
		pipelineDeps.Driver = driver
	}

	mon, err := monitor.New(cfg, logger, pipelineDeps)
	if err != nil {
		_ = seen.Close()
		return nil, nil, err
	}
	return mon, seen, nil
}

func newDriver(cfg *config.Config, logger *slog.Logger) (watch.Driver, error) {
	filter := monitor.FilterFor(cfg)
	switch cfg.Watch.Mode {
	case config.ModePoll:
		return watch.NewPoller(filter, time.Duration(cfg.Watch.PollInterval)*time.Second, logger)
	case config.ModeEvent:
		return watch.NewNotifier(filter, time.Duration(cfg.Watch.SettleMillis)*time.Millisecond, logger)
	default:
		return nil, errors.New("watch mode must be event or poll")
	}
}
