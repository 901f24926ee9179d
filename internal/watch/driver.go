package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// Handler receives one candidate file path at a time. Drivers do not
// deduplicate; downstream tracking decides what is actually new.
type Handler func(ctx context.Context, path string)

// Driver produces a stream of file paths from the watched directory until the
// context is cancelled. Implementations deliver paths to the handler one at a
// time from a single goroutine.
type Driver interface {
	Run(ctx context.Context, handle Handler) error
}

// Filter decides which paths a driver hands to the pipeline.
type Filter struct {
	Root       string
	SkipDirs   []string
	Recursive  bool
	Extensions []string
}

// AllowFile reports whether a regular file path passes the filter.
func (f Filter) AllowFile(path string) bool {
	for _, skip := range f.SkipDirs {
		if skip == "" {
			continue
		}
		if path == skip || strings.HasPrefix(path, skip+string(filepath.Separator)) {
			return false
		}
	}
	if !f.Recursive && filepath.Dir(path) != filepath.Clean(f.Root) {
		return false
	}
	if len(f.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		for _, allowed := range f.Extensions {
			if ext == allowed {
				return true
			}
		}
		return false
	}
	return true
}

// AllowDir reports whether a directory should be descended into.
func (f Filter) AllowDir(path string) bool {
	for _, skip := range f.SkipDirs {
		if skip == "" {
			continue
		}
		if path == skip || strings.HasPrefix(path, skip+string(filepath.Separator)) {
			return false
		}
	}
	if !f.Recursive && filepath.Clean(path) != filepath.Clean(f.Root) {
		return false
	}
	return true
}

// Walk traverses the filter's root once and invokes handle for every file
// passing the filter. Unreadable entries are skipped rather than aborting the
// walk.
func Walk(ctx context.Context, filter Filter, handle Handler) error {
	return filepath.WalkDir(filter.Root, func(path string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if !filter.AllowDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if filter.AllowFile(path) {
			handle(ctx, path)
		}
		return nil
	})
}
