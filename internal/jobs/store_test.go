package jobs_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vocalless/internal/jobs"
)

func fixedClock() func() time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Second)
	}
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	store := jobs.NewStore()
	for _, id := range []string{"", "missing", "6f1c0e0e-aaaa-bbbb-cccc-000000000000"} {
		if _, err := store.Get(id); !errors.Is(err, jobs.ErrNotFound) {
			t.Fatalf("Get(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestCreateAndGetSnapshot(t *testing.T) {
	store := jobs.NewStore(jobs.WithClock(fixedClock()))
	job := jobs.New("a", "https://example.com/watch?v=1", time.Time{})
	if err := store.Create(job); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.Create(job); !errors.Is(err, jobs.ErrDuplicate) {
		t.Fatalf("duplicate Create error = %v", err)
	}

	got, err := store.Get("a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != jobs.StatusPending || got.Progress != jobs.InitialProgress {
		t.Fatalf("unexpected initial state: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}

	got.Progress = "mutated snapshot"
	again, _ := store.Get("a")
	if again.Progress != jobs.InitialProgress {
		t.Fatal("snapshot mutation leaked into store")
	}
}

func TestCreateRequiresID(t *testing.T) {
	store := jobs.NewStore()
	if err := store.Create(jobs.Job{}); err == nil {
		t.Fatal("expected error for blank id")
	}
	if store.Count() != 0 {
		t.Fatalf("count = %d, want 0", store.Count())
	}
}

func TestTerminalStatesAbsorb(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(*jobs.Store) error
		want     jobs.Status
		wantPath string
	}{
		{"error", func(s *jobs.Store) error { return s.Fail("j", "Error when converting to wav. boom") }, jobs.StatusError, ""},
		{"success", func(s *jobs.Store) error { return s.Succeed("j", "/static/by_request_id/j/a%20b.wav", "a b.wav") }, jobs.StatusSuccess, "/static/by_request_id/j/a%20b.wav"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := jobs.NewStore()
			if err := store.Create(jobs.New("j", "u", time.Now())); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := tt.finish(store); err != nil {
				t.Fatalf("finish: %v", err)
			}
			before, _ := store.Get("j")

			if err := store.SetProgress("j", "late line"); !errors.Is(err, jobs.ErrTerminal) {
				t.Fatalf("SetProgress after terminal = %v", err)
			}
			if err := store.Fail("j", "second failure"); !errors.Is(err, jobs.ErrTerminal) {
				t.Fatalf("Fail after terminal = %v", err)
			}
			if err := store.Succeed("j", "/x", "x"); !errors.Is(err, jobs.ErrTerminal) {
				t.Fatalf("Succeed after terminal = %v", err)
			}

			after, _ := store.Get("j")
			if after != before {
				t.Fatalf("terminal record changed:\nbefore %+v\nafter  %+v", before, after)
			}
			if after.Status != tt.want {
				t.Fatalf("status = %s, want %s", after.Status, tt.want)
			}
			if after.OutputPath != tt.wantPath {
				t.Fatalf("output path = %q, want %q", after.OutputPath, tt.wantPath)
			}
		})
	}
}

func TestFailReplacesRecord(t *testing.T) {
	store := jobs.NewStore()
	if err := store.Create(jobs.New("j", "u", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Update("j", func(j *jobs.Job) {
		j.SourceID = "dQw4w9WgXcQ"
		j.Progress = "downloading: 50%"
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := store.Fail("j", "Error when downloading. network unreachable"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, _ := store.Get("j")
	if got.Progress != "" {
		t.Fatalf("progress should be cleared on failure, got %q", got.Progress)
	}
	if got.ErrorMessage != "Error when downloading. network unreachable" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
	if got.SourceID != "dQw4w9WgXcQ" {
		t.Fatalf("source id should be retained, got %q", got.SourceID)
	}
}

func TestUpdateCannotForgeTerminalStatus(t *testing.T) {
	store := jobs.NewStore()
	_ = store.Create(jobs.New("j", "u", time.Now()))
	_ = store.Update("j", func(j *jobs.Job) {
		j.Status = jobs.StatusSuccess
		j.ID = "other"
	})
	got, err := store.Get("j")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != jobs.StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
}

func TestMutationsOnEvictedJobDoNotRecreate(t *testing.T) {
	store := jobs.NewStore()
	_ = store.Create(jobs.New("j", "u", time.Now()))
	if !store.Delete("j") {
		t.Fatal("expected Delete to report removal")
	}
	if store.Delete("j") {
		t.Fatal("second Delete should report absence")
	}
	if err := store.SetProgress("j", "x"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("SetProgress = %v", err)
	}
	if err := store.Fail("j", "x"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("Fail = %v", err)
	}
	if err := store.Succeed("j", "/x", "x"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("Succeed = %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("count = %d, want 0", store.Count())
	}
}

func TestAdmitEnforcesCeiling(t *testing.T) {
	store := jobs.NewStore()
	const ceiling = 2
	for i := 0; i < ceiling; i++ {
		if err := store.Admit(jobs.New(fmt.Sprintf("j%d", i), "u", time.Now()), ceiling); err != nil {
			t.Fatalf("Admit %d: %v", i, err)
		}
	}
	if err := store.Admit(jobs.New("overflow", "u", time.Now()), ceiling); !errors.Is(err, jobs.ErrCapacity) {
		t.Fatalf("Admit over ceiling = %v, want ErrCapacity", err)
	}
	if _, err := store.Get("overflow"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatal("rejected admission must not create a record")
	}
	if store.Count() != ceiling {
		t.Fatalf("count = %d, want %d", store.Count(), ceiling)
	}

	// Terminal jobs still count until evicted.
	_ = store.Fail("j0", "boom")
	if err := store.Admit(jobs.New("late", "u", time.Now()), ceiling); !errors.Is(err, jobs.ErrCapacity) {
		t.Fatalf("Admit with terminal jobs tracked = %v", err)
	}
	store.Delete("j0")
	if err := store.Admit(jobs.New("late", "u", time.Now()), ceiling); err != nil {
		t.Fatalf("Admit after eviction: %v", err)
	}
}

func TestAdmitIsAtomicUnderContention(t *testing.T) {
	store := jobs.NewStore()
	const ceiling = 3
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Admit(jobs.New(fmt.Sprintf("j%d", i), "u", time.Now()), ceiling); err == nil {
				admitted.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if admitted.Load() != ceiling || store.Count() != ceiling {
		t.Fatalf("admitted %d, count %d, want %d", admitted.Load(), store.Count(), ceiling)
	}
}

func TestListOrdersByCreation(t *testing.T) {
	store := jobs.NewStore(jobs.WithClock(fixedClock()))
	for _, id := range []string{"c", "a", "b"} {
		if err := store.Create(jobs.Job{ID: id}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	list := store.List()
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	for i, want := range []string{"c", "a", "b"} {
		if list[i].ID != want {
			t.Fatalf("list[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
}
