package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"metasweep/internal/logging"
)

// Notifier reacts to OS filesystem change events. New and rewritten files are
// handed to the pipeline after a short settle delay so writers can finish.
type Notifier struct {
	filter Filter
	settle time.Duration
	logger *slog.Logger
}

// NewNotifier constructs an event-driven driver.
func NewNotifier(filter Filter, settle time.Duration, logger *slog.Logger) (*Notifier, error) {
	if filter.Root == "" {
		return nil, errors.New("watch root required")
	}
	if settle < 0 {
		settle = 0
	}
	return &Notifier{
		filter: filter,
		settle: settle,
		logger: logging.NewComponentLogger(logger, "notifier"),
	}, nil
}

// Run subscribes to filesystem events under the watched root until the
// context is cancelled. When the filter is recursive, newly created
// subdirectories are added to the watch as they appear.
func (n *Notifier) Run(ctx context.Context, handle Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := n.addWatches(watcher); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			n.handleEvent(ctx, watcher, event, handle)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			n.logger.Warn("filesystem watch error",
				logging.Error(watchErr),
				logging.String(logging.FieldEventType, "watch_error"),
			)
		}
	}
}

func (n *Notifier) addWatches(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(n.filter.Root); err != nil {
		return err
	}
	if !n.filter.Recursive {
		return nil
	}
	return walkDirs(n.filter, func(dir string) {
		if dir == n.filter.Root {
			return
		}
		if err := watcher.Add(dir); err != nil {
			n.logger.Warn("unable to watch subdirectory",
				logging.String(logging.FieldPath, dir),
				logging.Error(err),
			)
		}
	})
}

func (n *Notifier) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, handle Handler) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone before we could look at it; a later event will cover it.
		return
	}

	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) && n.filter.Recursive && n.filter.AllowDir(event.Name) {
			if err := watcher.Add(event.Name); err != nil {
				n.logger.Warn("unable to watch new subdirectory",
					logging.String(logging.FieldPath, event.Name),
					logging.Error(err),
				)
			}
		}
		return
	}

	if !info.Mode().IsRegular() || !n.filter.AllowFile(event.Name) {
		return
	}

	if n.settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(n.settle):
		}
	}

	handle(ctx, event.Name)
}

func walkDirs(filter Filter, visit func(dir string)) error {
	return filepath.WalkDir(filter.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if !filter.AllowDir(path) {
			return filepath.SkipDir
		}
		visit(path)
		return nil
	})
}
