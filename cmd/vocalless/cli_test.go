package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vocalless/internal/api"
	"vocalless/internal/jobs"
	"vocalless/internal/logging"
	"vocalless/internal/sourcecache"
	"vocalless/internal/testsupport"
)

const testURL = "https://www.youtube.com/watch?v=src1"

func TestSubmitWaitReportsOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "submit", "--wait", "--interval", "10ms", "--timeout", "5s", testURL)
	if err != nil {
		t.Fatalf("submit --wait: %v", err)
	}
	requireContains(t, out, "Submitted ")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "/My%20Song%20Instruments.wav")
}

func TestSubmitWaitReportsFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.exec.On("ffmpeg", testsupport.Fail("Invalid data found when processing input"))

	out, _, err := env.run(t, "submit", "--wait", "--interval", "10ms", "--timeout", "5s", testURL)
	if err == nil {
		t.Fatal("expected failed job to return an error")
	}
	requireContains(t, out, "Error when converting to wav. Invalid data found when processing input")
}

func TestSubmitThenStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "submit", testURL)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("expected a request id")
	}

	out, _, err = env.run(t, "status", "--json", id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var job jobs.Job
	if err := json.Unmarshal([]byte(out), &job); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if job.ID != id || job.SourceURL != testURL {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestSubmitRejectedByDaemon(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMaxJobs(1))
	release := make(chan struct{})
	defer close(release)
	env.exec.On("python", testsupport.Block(release, env.exec.Handler("python")))

	if _, _, err := env.run(t, "submit", testURL); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, _, err := env.run(t, "submit", testURL)
	if !errors.Is(err, api.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	requireContains(t, err.Error(), "Maximum number of requests")
}

func TestStatusUnknownJob(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "status", "nope")
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobsTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "No jobs (capacity 2)")

	id, _, err := env.run(t, "submit", testURL)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out, _, err = env.run(t, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, strings.TrimSpace(id))
	requireContains(t, out, "1 of 2 slots in use")
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "max_jobs = 2")
	requireContains(t, out, env.cfg.Paths.WorkDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestDepsCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, _, err := env.run(t, "deps")
	if err == nil {
		t.Fatal("expected deps to fail without the inference script")
	}
	requireContains(t, out, "Vocal remover")
	requireContains(t, err.Error(), "1 of")

	script := env.cfg.SeparatorScript()
	if err := os.WriteFile(script, []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err = env.run(t, "deps")
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "youtube-dl")
	requireContains(t, out, "FFmpeg")
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSourceCache())

	cache, err := sourcecache.Open(env.cfg.SourceCache.Path, logging.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := cache.Store(context.Background(), testURL, "src1"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := cache.Store(context.Background(), "https://example.com/other", "other1"); err != nil {
		t.Fatalf("store: %v", err)
	}
	_ = cache.Close()

	out, _, err := env.run(t, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "src1")
	requireContains(t, out, "other1")

	out, _, err = env.run(t, "cache", "remove", "https://example.com/other")
	if err != nil {
		t.Fatalf("cache remove: %v", err)
	}
	requireContains(t, out, "Removed https://example.com/other")

	out, _, err = env.run(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached entries")
}

func TestCacheDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "cache", "list"); err == nil {
		t.Fatal("expected error when the cache is disabled")
	}
}

func TestPollJobStopsOnTerminal(t *testing.T) {
	calls := 0
	job, err := pollJob(context.Background(), time.Millisecond, func(context.Context) (jobs.Job, error) {
		calls++
		if calls < 3 {
			return jobs.Job{ID: "a", Status: jobs.StatusPending}, nil
		}
		return jobs.Job{ID: "a", Status: jobs.StatusSuccess}, nil
	})
	if err != nil {
		t.Fatalf("pollJob: %v", err)
	}
	if job.Status != jobs.StatusSuccess || calls != 3 {
		t.Fatalf("job = %+v after %d calls", job, calls)
	}

	_, err = pollJob(context.Background(), time.Millisecond, func(context.Context) (jobs.Job, error) {
		return jobs.Job{}, jobs.ErrNotFound
	})
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStageLabel(t *testing.T) {
	tests := []struct {
		job  jobs.Job
		want string
	}{
		{jobs.Job{Status: jobs.StatusPending, Progress: jobs.InitialProgress}, "Queued"},
		{jobs.Job{Status: jobs.StatusPending, Progress: "converting to wav: size=1kB"}, "Transcode"},
		{jobs.Job{Status: jobs.StatusSuccess}, "Done"},
		{jobs.Job{Status: jobs.StatusError}, "Failed"},
	}
	for _, tt := range tests {
		if got := stageLabel(tt.job); got != tt.want {
			t.Fatalf("stageLabel(%q) = %q, want %q", tt.job.Progress, got, tt.want)
		}
	}
}

func TestRenderJobColorizes(t *testing.T) {
	lines := renderJob(jobs.Job{ID: "a", Status: jobs.StatusError, ErrorMessage: "boom\ntrace"}, true)
	joined := strings.Join(lines, "\n")
	requireContains(t, joined, ansiRed)
	requireContains(t, joined, "boom ...")
	if strings.Contains(joined, "trace") {
		t.Fatalf("expected only the first error line: %q", joined)
	}
}
