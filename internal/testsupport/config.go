package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vocalless/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The required tool directories exist so the config passes validation.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.PublicDir = filepath.Join(base, "public")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Tools.FFmpegDir = filepath.Join(base, "ffmpeg")
	cfgVal.Tools.VocalRemoverPath = filepath.Join(base, "vocal-remover")
	cfgVal.SourceCache.Enabled = false
	cfgVal.SourceCache.Path = filepath.Join(base, "state", "sources.db")
	cfgVal.Cleanup.Enabled = false

	for _, dir := range []string{cfgVal.Paths.WorkDir, cfgVal.Tools.FFmpegDir, cfgVal.Tools.VocalRemoverPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMaxJobs overrides the admission ceiling.
func WithMaxJobs(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.MaxJobs = n
	}
}

// WithSourceCache enables the sqlite source cache under the state directory.
func WithSourceCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SourceCache.Enabled = true
	}
}

// WithCleanup enables the stale directory sweep.
func WithCleanup(schedule string, staleAfterHours int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cleanup.Enabled = true
		b.cfg.Cleanup.SweepSchedule = schedule
		b.cfg.Cleanup.StaleAfterHours = staleAfterHours
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the downloader and python are
// stubbed; ffmpeg is always stubbed inside the configured ffmpeg directory.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"youtube-dl", "python"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		if err := os.WriteFile(b.cfg.FFmpegBinary(), script, 0o755); err != nil {
			b.t.Fatalf("write stub ffmpeg: %v", err)
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
