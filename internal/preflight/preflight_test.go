package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"vocalless/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSeparatorCheckout(t *testing.T) {
	repo := t.TempDir()
	script := filepath.Join(repo, "inference.py")

	if result := CheckSeparatorCheckout(repo, script); result.Passed {
		t.Fatal("expected failure without inference script")
	}
	if err := os.WriteFile(script, []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckSeparatorCheckout(repo, script); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckSeparatorCheckout(filepath.Join(repo, "missing"), script); result.Passed {
		t.Fatal("expected failure for missing checkout")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.PublicDir = filepath.Join(base, "public")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Tools.VocalRemoverPath = filepath.Join(base, "remover")
	cfg.Tools.FFmpegDir = filepath.Join(base, "ffmpeg")
	cfg.Tools.YtdlBinary = filepath.Join(base, "bin", "youtube-dl")
	cfg.Tools.PythonBinary = filepath.Join(base, "bin", "python")
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.PublicDir, cfg.Paths.StateDir, cfg.Tools.VocalRemoverPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	results := RunAll(&cfg)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Work directory", "Public directory", "State directory"} {
		if !byName[name].Passed {
			t.Fatalf("%s should pass: %s", name, byName[name].Detail)
		}
	}
	for _, name := range []string{"Vocal remover", "youtube-dl", "Python", "FFmpeg"} {
		r, ok := byName[name]
		if !ok {
			t.Fatalf("missing result for %s", name)
		}
		if r.Passed {
			t.Fatalf("%s should fail", name)
		}
	}
	if got := len(Failed(results)); got != 4 {
		t.Fatalf("failed = %d, want 4", got)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}
