package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vocalless/internal/logging"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func mkdirAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("set time: %v", err)
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldDir := filepath.Join(tmpDir, "failed-source")
	mkdirAged(t, oldDir, 2*time.Hour)
	recentDir := filepath.Join(tmpDir, "recent-source")
	mkdirAged(t, recentDir, 0)

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("removed = %v, want [%s]", result.Removed, oldDir)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleHonoursKeep(t *testing.T) {
	tmpDir := t.TempDir()
	active := filepath.Join(tmpDir, "active")
	mkdirAged(t, active, 48*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, func(name string) bool { return name == "active" }, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("removed = %v, want none", result.Removed)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatal("kept directory was removed")
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(oldFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stamp := time.Now().Add(-48 * time.Hour)
	_ = os.Chtimes(oldFile, stamp, stamp)

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("files must not be removed: %v", result.Removed)
	}
}

func TestCleanStaleStopsOnCancelledContext(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirAged(t, filepath.Join(tmpDir, "a"), 2*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := CleanStale(ctx, tmpDir, time.Hour, nil, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("removed = %v after cancellation", result.Removed)
	}
}

func TestSweeperCoversAllRoots(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "work")
	public := filepath.Join(base, "public", "by_request_id")
	mkdirAged(t, filepath.Join(work, "src-old"), 30*time.Hour)
	mkdirAged(t, filepath.Join(work, "src-new"), time.Minute)
	mkdirAged(t, filepath.Join(public, "req-old"), 30*time.Hour)

	s := NewSweeper("@every 1h", 24*time.Hour, nil, logging.NewNop(), work, public)
	result := s.Sweep(context.Background())
	if len(result.Removed) != 2 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(work, "src-new")); err != nil {
		t.Fatal("fresh work dir removed")
	}
}

func TestSweeperRunRejectsBadSchedule(t *testing.T) {
	s := NewSweeper("not a schedule", time.Hour, nil, nil, t.TempDir())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestSweeperRunStopsWithContext(t *testing.T) {
	root := t.TempDir()
	mkdirAged(t, filepath.Join(root, "stale"), 2*time.Hour)
	s := NewSweeper("@every 1s", time.Hour, nil, nil, root)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(filepath.Join(root, "stale")); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduled sweep never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
