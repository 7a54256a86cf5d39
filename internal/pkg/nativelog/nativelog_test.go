package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLogFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSnapshotFilesSinceStartup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvLogDir, dir)

	now := time.Now()
	today := writeLogFile(t, dir, TodayFilename(now))
	rotated := writeLogFile(t, dir, TodayFilename(now)+".101500")
	// A file from before the startup window must not be included.
	writeLogFile(t, dir, TodayFilename(now.AddDate(0, 0, -1)))

	paths, err := SnapshotFilesSinceStartup(now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("snapshot = %v, want rotated + live file", paths)
	}
	if paths[0] != rotated || paths[1] != today {
		t.Errorf("order = %v, want rotated before live", paths)
	}
}

func TestSnapshotFilesSinceStartupMissingDir(t *testing.T) {
	t.Setenv(EnvLogDir, filepath.Join(t.TempDir(), "nope"))

	paths, err := SnapshotFilesSinceStartup(time.Now())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("snapshot = %v, want empty", paths)
	}
}
