package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Extractor produces the metadata record for a file.
type Extractor interface {
	Extract(ctx context.Context, path string) (Record, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.Output()
}

// bookkeepingFields are reported by exiftool for every file regardless of
// embedded metadata. They never identify the file's author or origin, so
// treating them as metadata would flag freshly cleaned files forever.
var bookkeepingFields = map[string]struct{}{
	"SourceFile":          {},
	"ExifToolVersion":     {},
	"FileName":            {},
	"Directory":           {},
	"FileSize":            {},
	"FileModifyDate":      {},
	"FileAccessDate":      {},
	"FileInodeChangeDate": {},
	"FilePermissions":     {},
	"FileType":            {},
	"FileTypeExtension":   {},
	"MIMEType":            {},
}

// Option configures the exiftool extractor.
type Option func(*ExifTool)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(e *ExifTool) {
		if executor != nil {
			e.exec = executor
		}
	}
}

// ExifTool extracts metadata by invoking the exiftool binary.
type ExifTool struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// NewExifTool constructs an exiftool-backed extractor.
func NewExifTool(binary string, timeoutSeconds int, opts ...Option) (*ExifTool, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	extractor := &ExifTool{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor, nil
}

// Extract runs exiftool and returns the file's metadata record. Unsupported
// and metadata-free files yield an empty record with a nil error; a non-nil
// error indicates the invocation itself failed.
func (e *ExifTool) Extract(ctx context.Context, path string) (Record, error) {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	output, err := e.exec.Output(runCtx, e.binary, "-json", path)
	if err != nil {
		// exiftool exits non-zero for unrecognized formats but still emits a
		// JSON document describing the file. Use it when present.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(output) > 0 {
			if record, parseErr := parseExifToolJSON(output); parseErr == nil {
				return record, nil
			}
		}
		return Record{}, fmt.Errorf("exiftool %s: %w", path, err)
	}

	record, err := parseExifToolJSON(output)
	if err != nil {
		return Record{}, fmt.Errorf("parse exiftool output for %s: %w", path, err)
	}
	return record, nil
}

func parseExifToolJSON(output []byte) (Record, error) {
	decoder := json.NewDecoder(strings.NewReader(string(output)))
	decoder.UseNumber()

	var documents []map[string]any
	if err := decoder.Decode(&documents); err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return Record{}, nil
	}

	record := make(Record)
	for field, value := range documents[0] {
		if _, ok := bookkeepingFields[field]; ok {
			continue
		}
		// exiftool reports its own read failures as an Error field.
		if field == "Error" {
			continue
		}
		record[field] = flattenValue(value)
	}
	return record, nil
}

// flattenValue renders arbitrary exiftool JSON values as stable strings.
func flattenValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+"="+flattenValue(v[key]))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
