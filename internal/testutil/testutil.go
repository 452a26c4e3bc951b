// Package testutil provides helpers for tests that exercise the
// external-tool seams: stub executables on PATH and small file
// fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/abiscope/abiscope/internal/config"
)

// ToolConfig returns a config naming the default tools, for tests that
// pair it with stub executables on PATH.
func ToolConfig() *config.Config {
	return &config.Config{
		Abidw:        config.DefaultAbidw,
		Abidiff:      config.DefaultAbidiff,
		Preprocessor: config.DefaultPreprocessor,
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// InstallStubTool writes an executable shell script named name into
// dir and returns its path. The script body decides the stub's
// behavior (echo canned output, exit with a fixed code, and so on).
func InstallStubTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tools require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	body := "#!/bin/sh\n" + script + "\n"
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to install stub %s: %v", name, err)
	}
	return path
}

// PrependPath puts dir at the front of PATH for the test's duration,
// so stub tools shadow any real ones.
func PrependPath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
