package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Cleaner strips embedded metadata from a file in place.
type Cleaner interface {
	Clean(ctx context.Context, path string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Option configures the tool cleaner.
type Option func(*ToolCleaner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(c *ToolCleaner) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// ToolCleaner strips metadata with exiftool, falling back to qpdf for PDFs
// when exiftool cannot rewrite the file.
type ToolCleaner struct {
	exiftool string
	qpdf     string
	timeout  time.Duration
	exec     Executor
}

// New constructs a cleaner around the configured external tools. The qpdf
// binary is optional; without it PDF fallback is disabled.
func New(exiftoolBinary, qpdfBinary string, timeoutSeconds int, opts ...Option) (*ToolCleaner, error) {
	exiftoolBinary = strings.TrimSpace(exiftoolBinary)
	if exiftoolBinary == "" {
		return nil, errors.New("exiftool binary required")
	}
	cleaner := &ToolCleaner{
		exiftool: exiftoolBinary,
		qpdf:     strings.TrimSpace(qpdfBinary),
		timeout:  time.Duration(timeoutSeconds) * time.Second,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	return cleaner, nil
}

// Clean removes all writable metadata from the file at path. The original file
// is only replaced when a tool reports success; on failure it is left as-is.
func (c *ToolCleaner) Clean(ctx context.Context, path string) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	output, err := c.exec.Run(runCtx, c.exiftool, "-all=", "-overwrite_original", path)
	if err == nil {
		return nil
	}
	exiftoolErr := fmt.Errorf("exiftool clean %s: %w: %s", path, err, firstLine(output))

	if c.qpdf != "" && strings.EqualFold(filepath.Ext(path), ".pdf") {
		output, qpdfErr := c.exec.Run(runCtx, c.qpdf, "--linearize", "--replace-input", path)
		if qpdfErr == nil {
			return nil
		}
		return fmt.Errorf("%w; qpdf fallback: %s", exiftoolErr, firstLine(output))
	}

	return exiftoolErr
}

func firstLine(output []byte) string {
	text := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if text == "" {
		return "(no output)"
	}
	return text
}
