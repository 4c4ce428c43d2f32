package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vocalless/internal/runner"
)

// Handler scripts one fake process. emit delivers output lines to the runner.
type Handler func(ctx context.Context, cmd runner.Command, emit func(runner.Stream, string)) error

// ErrExit stands in for a nonzero process exit.
var ErrExit = errors.New("exit status 1")

// FakeExecutor is a runner.Executor that dispatches on the base name of the
// command binary. Unknown binaries fail as if they could not be started.
type FakeExecutor struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []runner.Command
}

// NewFakeExecutor constructs an executor with no scripted binaries.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{handlers: make(map[string]Handler)}
}

// On scripts the process named binary.
func (f *FakeExecutor) On(binary string, h Handler) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[binary] = h
	return f
}

// Handler returns the script registered for binary, or nil.
func (f *FakeExecutor) Handler(binary string) Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[binary]
}

// Run implements runner.Executor.
func (f *FakeExecutor) Run(ctx context.Context, cmd runner.Command, onLine func(runner.Stream, string)) error {
	name := filepath.Base(cmd.Binary)
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h, ok := f.handlers[name]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("start command: exec: %q: executable file not found in $PATH", name)
	}
	emit := func(stream runner.Stream, line string) {
		if onLine != nil {
			onLine(stream, line)
		}
	}
	return h(ctx, cmd, emit)
}

// Calls returns every command seen, in order.
func (f *FakeExecutor) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallCount reports how many times binary was launched.
func (f *FakeExecutor) CallCount(binary string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, cmd := range f.calls {
		if filepath.Base(cmd.Binary) == binary {
			n++
		}
	}
	return n
}

// Fail emits stderr lines and exits nonzero.
func Fail(stderr ...string) Handler {
	return func(_ context.Context, _ runner.Command, emit func(runner.Stream, string)) error {
		for _, line := range stderr {
			emit(runner.Stderr, line)
		}
		return ErrExit
	}
}

// Succeed emits stdout lines and exits zero without touching the filesystem.
func Succeed(stdout ...string) Handler {
	return func(_ context.Context, _ runner.Command, emit func(runner.Stream, string)) error {
		for _, line := range stdout {
			emit(runner.Stdout, line)
		}
		return nil
	}
}

// Block waits until release is closed or ctx ends.
func Block(release <-chan struct{}, then Handler) Handler {
	return func(ctx context.Context, cmd runner.Command, emit func(runner.Stream, string)) error {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		return then(ctx, cmd, emit)
	}
}

// PipelineTools scripts the downloader, ffmpeg, and the separator so a full
// pipeline run produces files the way the real tools do. title names the
// downloaded audio; ext is its extension including the dot.
func PipelineTools(f *FakeExecutor, sourceID, title, ext string) *FakeExecutor {
	f.On("youtube-dl", func(_ context.Context, cmd runner.Command, emit func(runner.Stream, string)) error {
		if argValue(cmd.Args, "--get-id") != "" {
			emit(runner.Stdout, sourceID)
			return nil
		}
		template := argValue(cmd.Args, "--output")
		if template == "" {
			return errors.New("missing --output")
		}
		emit(runner.Stdout, "[download]  50.0% of 3.20MiB")
		emit(runner.Stdout, "[download] 100.0% of 3.20MiB")
		return writeFile(filepath.Join(filepath.Dir(template), title+ext))
	})
	f.On("ffmpeg", func(_ context.Context, cmd runner.Command, emit func(runner.Stream, string)) error {
		emit(runner.Stderr, "size=     512kB time=00:00:10.00")
		return writeFile(cmd.Args[len(cmd.Args)-1])
	})
	f.On("python", func(_ context.Context, cmd runner.Command, emit func(runner.Stream, string)) error {
		input := argValue(cmd.Args, "--input")
		outDir := argValue(cmd.Args, "--output_dir")
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		emit(runner.Stdout, "100%|##########| 12/12")
		if err := writeFile(filepath.Join(outDir, stem+"_Vocals.wav")); err != nil {
			return err
		}
		return writeFile(filepath.Join(outDir, stem+"_Instruments.wav"))
	})
	return f
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func writeFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("RIFF"), 0o644)
}
