package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"vocalless/internal/logging"
	"vocalless/internal/services"
)

// Tracker receives live progress and failures for a job.
type Tracker interface {
	SetProgress(id, progress string) error
	Fail(id, message string) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithTimeout bounds every process started by the runner. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// Runner executes external commands on behalf of a job, streaming each
// output line into the job's progress.
type Runner struct {
	exec    Executor
	tracker Tracker
	logger  *slog.Logger
	timeout time.Duration
}

// New constructs a Runner reporting into tracker.
func New(tracker Tracker, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		exec:    commandExecutor{waitDelay: defaultWaitDelay},
		tracker: tracker,
		logger:  logging.NewComponentLogger(logger, "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// failureTailLines caps how much captured output ends up in an error record.
const failureTailLines = 40

var percentPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%`)

// Run executes cmd for jobID. Every line becomes "<description>: <line>" in
// the job's progress. On success the progress reads "<description> has
// completed" and the accumulated stdout is returned. On failure the job is
// replaced by a terminal error record and an ErrExternalTool (or ErrTimeout)
// error is returned. A panic while handling output stops the process and
// comes back as ErrFault with the job left untouched.
func (r *Runner) Run(ctx context.Context, jobID, description string, cmd Command) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, r.logger)

	deadlineCtx := ctx
	if r.timeout > 0 {
		var cancelTimeout context.CancelFunc
		deadlineCtx, cancelTimeout = context.WithTimeout(ctx, r.timeout)
		defer cancelTimeout()
	}
	runCtx, cancelRun := context.WithCancel(deadlineCtx)
	defer cancelRun()

	var (
		mu      sync.Mutex
		stdout  strings.Builder
		stderr  strings.Builder
		fault   error
		sampler = logging.NewProgressSampler(10)
	)

	logger.Info("process starting",
		logging.String(logging.FieldEventType, "process_start"),
		logging.String("description", description),
		logging.String("command", cmd.String()),
	)
	started := time.Now()

	err := r.exec.Run(runCtx, cmd, func(stream Stream, line string) {
		// Lines may arrive on executor goroutines where a panic would take
		// down the process. Record it and stop the command instead.
		defer func() {
			if p := recover(); p != nil {
				mu.Lock()
				if fault == nil {
					fault = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
				}
				mu.Unlock()
				cancelRun()
			}
		}()
		mu.Lock()
		if stream == Stderr {
			stderr.WriteString(line)
			stderr.WriteByte('\n')
		} else {
			stdout.WriteString(line)
			stdout.WriteByte('\n')
		}
		mu.Unlock()

		logger.Debug(description, logging.String("stream", stream.String()), logging.String("line", line))
		if pct, ok := parsePercent(line); ok && sampler.Observe(description, pct) {
			logger.Info("process progress",
				logging.String(logging.FieldEventType, "process_progress"),
				logging.String("description", description),
				logging.Any("percent", pct),
			)
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			_ = r.tracker.SetProgress(jobID, description+": "+trimmed)
		}
	})

	mu.Lock()
	out, errText, handlerFault := stdout.String(), stderr.String(), fault
	mu.Unlock()

	if handlerFault != nil {
		// Not a tool failure: the caller records it as a critical failure.
		return out, services.Wrap(services.ErrFault, description, "progress", "", handlerFault)
	}
	if err == nil {
		_ = r.tracker.SetProgress(jobID, description+" has completed")
		logger.Info("process completed",
			logging.String(logging.FieldEventType, "process_complete"),
			logging.String("description", description),
			logging.Duration("duration", time.Since(started)),
		)
		return out, nil
	}

	marker := services.ErrExternalTool
	captured := tailLines(strings.TrimSpace(errText), failureTailLines)
	if captured == "" {
		captured = tailLines(strings.TrimSpace(out), failureTailLines)
	}
	switch {
	case errors.Is(deadlineCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		marker = services.ErrTimeout
		captured = strings.TrimSpace(fmt.Sprintf("timed out after %s. %s", r.timeout, captured))
	case captured == "" && !isExitError(err):
		captured = err.Error()
	}

	message := "Error when " + description
	if captured != "" {
		message += ". " + captured
	}
	if failErr := r.tracker.Fail(jobID, message); failErr != nil {
		logger.Debug("failure not recorded", logging.Error(failErr))
	}
	logging.ErrorWithContext(logger, "process failed", "process_failed",
		logging.String("description", description),
		logging.String("command", cmd.String()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect the captured output in the job error message"),
	)
	return out, services.Wrap(marker, description, "run", captured, err)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func parsePercent(line string) (float64, bool) {
	match := percentPattern.FindStringSubmatch(line)
	if len(match) < 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || value > 100 {
		return 0, false
	}
	return value, true
}

func tailLines(text string, limit int) string {
	if text == "" || limit <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= limit {
		return text
	}
	return strings.Join(lines[len(lines)-limit:], "\n")
}
