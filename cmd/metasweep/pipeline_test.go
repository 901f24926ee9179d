package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"metasweep/internal/config"
	"metasweep/internal/deps"
	"metasweep/internal/monitor"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "watched")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	return &cfg
}

func TestApplyOverridesReplacesSettings(t *testing.T) {
	cfg := testConfig(t)
	other := filepath.Join(t.TempDir(), "inbox")
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatalf("mkdir override dir: %v", err)
	}
	statePath := filepath.Join(t.TempDir(), "seen.db")

	err := applyOverrides(cfg, runOverrides{
		dir:      other,
		mode:     "Poll",
		interval: 5,
		clean:    true,
		cleanSet: true,
		state:    statePath,
		stateSet: true,
	})
	if err != nil {
		t.Fatalf("apply overrides: %v", err)
	}

	if cfg.Paths.WatchDir != other {
		t.Fatalf("watch dir not overridden: %s", cfg.Paths.WatchDir)
	}
	if cfg.Watch.Mode != config.ModePoll || cfg.Watch.PollInterval != 5 {
		t.Fatalf("watch settings not overridden: %+v", cfg.Watch)
	}
	if !cfg.Cleaning.Enabled {
		t.Fatalf("cleaning not enabled by override")
	}
	if cfg.Paths.StatePath != statePath {
		t.Fatalf("state path not overridden: %s", cfg.Paths.StatePath)
	}
	if _, err := os.Stat(cfg.ScratchDir()); err != nil {
		t.Fatalf("expected scratch directory to be created: %v", err)
	}
}

func TestApplyOverridesRejectsMissingWatchDir(t *testing.T) {
	cfg := testConfig(t)
	err := applyOverrides(cfg, runOverrides{dir: filepath.Join(t.TempDir(), "nope")})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing-directory error, got %v", err)
	}
}

func TestApplyOverridesRejectsFileAsWatchDir(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	err := applyOverrides(cfg, runOverrides{dir: file})
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected non-directory error, got %v", err)
	}
}

func TestApplyOverridesRejectsInvalidMode(t *testing.T) {
	cfg := testConfig(t)
	if err := applyOverrides(cfg, runOverrides{mode: "inotify"}); err == nil {
		t.Fatalf("expected error for invalid mode override")
	}
}

func TestApplyOverridesClearingStateFallsBackToMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.StatePath = filepath.Join(t.TempDir(), "seen.db")

	if err := applyOverrides(cfg, runOverrides{state: "", stateSet: true}); err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if cfg.Paths.StatePath != "" {
		t.Fatalf("expected empty state path, got %q", cfg.Paths.StatePath)
	}
}

func TestRenderScanSummary(t *testing.T) {
	out := renderScanSummary(monitor.ScanSummary{Scanned: 4, Detected: 2, Cleaned: 1})
	for _, want := range []string{"Files scanned", "Metadata detected", "Cleaned", "4", "2", "1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary table:\n%s", want, out)
		}
	}
}

func TestRenderToolStatus(t *testing.T) {
	ok := renderToolStatus(deps.Status{Name: "ExifTool", Available: true, Description: "metadata extraction"}, false)
	if !strings.Contains(ok, "[OK]") || !strings.Contains(ok, "ExifTool") {
		t.Fatalf("unexpected ok line: %q", ok)
	}

	missingRequired := renderToolStatus(deps.Status{Name: "ExifTool", Detail: "not found"}, false)
	if !strings.Contains(missingRequired, "[ERROR]") {
		t.Fatalf("expected error status for missing required tool: %q", missingRequired)
	}

	missingOptional := renderToolStatus(deps.Status{Name: "QPDF", Optional: true, Detail: "not found"}, false)
	if !strings.Contains(missingOptional, "[WARN]") {
		t.Fatalf("expected warn status for missing optional tool: %q", missingOptional)
	}
}
