package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vocalless/internal/config"
	"vocalless/internal/fileutil"
	"vocalless/internal/jobs"
	"vocalless/internal/logging"
	"vocalless/internal/reclaim"
	"vocalless/internal/services"
	"vocalless/internal/services/separator"
	"vocalless/internal/stages"
)

// PublicPrefix is the URL path the public directory is served under.
const PublicPrefix = "/static"

// RequestDir is the public subdirectory holding per-request artifacts.
const RequestDir = "by_request_id"

var (
	// ErrInvalidURL is returned by Submit for anything but an absolute http(s) URL.
	ErrInvalidURL = fmt.Errorf("%w: source url must be an absolute http or https url", services.ErrValidation)
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("pipeline is shutting down")

	errHalted = errors.New("job no longer pending")
)

// StageRunner is the set of stage operations a run drives.
type StageRunner interface {
	Lookup(ctx context.Context, jobID, url string) (string, error)
	Download(ctx context.Context, jobID, url string, layout stages.Layout) (string, error)
	Transcode(ctx context.Context, jobID, input string, layout stages.Layout) (string, error)
	Separate(ctx context.Context, jobID, wav string, layout stages.Layout) (string, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelays overrides the eviction and directory reclaim delays.
func WithDelays(evict, reclaimDir time.Duration) Option {
	return func(o *Orchestrator) {
		if evict > 0 {
			o.evictAfter = evict
		}
		if reclaimDir >= 0 {
			o.reclaimAfter = reclaimDir
		}
	}
}

// WithIDGenerator replaces uuid generation (primarily for tests).
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// Orchestrator owns the lifetime of every admitted job.
type Orchestrator struct {
	store        *jobs.Store
	stages       StageRunner
	timers       *reclaim.Scheduler
	logger       *slog.Logger
	workDir      string
	publicDir    string
	maxJobs      int
	evictAfter   time.Duration
	reclaimAfter time.Duration
	newID        func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New constructs an Orchestrator. Runs inherit ctx, so cancelling it kills
// in-flight tool processes.
func New(ctx context.Context, cfg *config.Config, store *jobs.Store, stageSet StageRunner, logger *slog.Logger, opts ...Option) *Orchestrator {
	if ctx == nil {
		ctx = context.Background()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	runCtx, cancel := context.WithCancel(ctx)
	o := &Orchestrator{
		store:        store,
		stages:       stageSet,
		timers:       reclaim.New(logger),
		logger:       logger,
		workDir:      cfg.Paths.WorkDir,
		publicDir:    cfg.Paths.PublicDir,
		maxJobs:      cfg.Pipeline.MaxJobs,
		evictAfter:   cfg.EvictionDelay(),
		reclaimAfter: cfg.DirReclaimDelay(),
		newID:        uuid.NewString,
		ctx:          runCtx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit admits a job for sourceURL and starts it. A full store yields
// jobs.ErrCapacity and leaves no trace.
func (o *Orchestrator) Submit(ctx context.Context, sourceURL string) (jobs.Job, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if err := validateURL(sourceURL); err != nil {
		return jobs.Job{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return jobs.Job{}, ErrClosed
	}

	job := jobs.New(o.newID(), sourceURL, time.Now())
	logger := logging.WithContext(ctx, o.logger)
	if err := o.store.Admit(job, o.maxJobs); err != nil {
		if errors.Is(err, jobs.ErrCapacity) {
			logging.WarnWithContext(logger, "submission rejected", "admission_rejected",
				logging.Int("max_jobs", o.maxJobs),
				logging.String(logging.FieldImpact, "request refused, client should retry later"),
				logging.String(logging.FieldErrorHint, "raise pipeline.max_jobs or wait for jobs to be evicted"),
			)
		}
		return jobs.Job{}, err
	}

	id := job.ID
	o.timers.After(id, o.evictAfter, func() { o.evict(id) })

	runCtx := services.WithJobID(o.ctx, id)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		runCtx = services.WithRequestID(runCtx, rid)
	}
	o.wg.Add(1)
	go o.run(runCtx, id, sourceURL)

	logger.Info("job admitted",
		logging.String(logging.FieldJobID, id),
		logging.String("source_url", sourceURL),
		logging.String(logging.FieldEventType, "job_admitted"),
	)
	return job, nil
}

// Wait blocks until every started run has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close refuses new submissions, cancels in-flight runs, waits for them, and
// stops every pending reclaim timer.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
	o.timers.StopAll()
}

func (o *Orchestrator) run(ctx context.Context, id, sourceURL string) {
	defer o.wg.Done()
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.recordFault(logger, id, fmt.Errorf("panic: %v", r), debug.Stack())
		}
	}()

	err := o.execute(ctx, id, sourceURL)
	switch {
	case err == nil:
		logger.Info("job completed",
			logging.Duration("duration", time.Since(started)),
			logging.String(logging.FieldEventType, "job_completed"),
		)
	case errors.Is(err, errHalted):
		logger.Info("job stopped before completion",
			logging.String("reason", err.Error()),
			logging.String(logging.FieldEventType, "job_halted"),
		)
	case errors.Is(err, services.ErrExternalTool), errors.Is(err, services.ErrTimeout):
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Classify(err)),
			logging.String(logging.FieldErrorHint, "see the job error message for the tool output"),
		)
	case errors.Is(err, services.ErrValidation):
		message := services.Detail(err)
		if failErr := o.store.Fail(id, message); failErr != nil {
			logger.Debug("invariant failure not recorded", logging.Error(failErr))
		}
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Classify(err)),
			logging.String(logging.FieldErrorHint, message),
		)
	default:
		o.recordFault(logger, id, err, debug.Stack())
	}
}

func (o *Orchestrator) execute(ctx context.Context, id, sourceURL string) error {
	if err := o.checkPending(id); err != nil {
		return err
	}
	sourceID, err := o.stages.Lookup(ctx, id, sourceURL)
	if err != nil {
		return err
	}
	if err := o.store.Update(id, func(j *jobs.Job) { j.SourceID = sourceID }); err != nil {
		return halted(err)
	}

	layout := stages.NewLayout(o.workDir, sourceID)
	if err := layout.Ensure(); err != nil {
		return err
	}

	if err := o.checkPending(id); err != nil {
		return err
	}
	audio, err := o.stages.Download(ctx, id, sourceURL, layout)
	if err != nil {
		return err
	}

	if err := o.checkPending(id); err != nil {
		return err
	}
	wav, err := o.stages.Transcode(ctx, id, audio, layout)
	if err != nil {
		return err
	}

	if err := o.checkPending(id); err != nil {
		return err
	}
	stem, err := o.stages.Separate(ctx, id, wav, layout)
	if err != nil {
		return err
	}

	if err := o.checkPending(id); err != nil {
		return err
	}
	return o.finalize(ctx, id, layout, stem)
}

func (o *Orchestrator) finalize(ctx context.Context, id string, layout stages.Layout, stem string) error {
	name := separator.PublicName(filepath.Base(stem))
	dest := filepath.Join(o.publicDir, RequestDir, id, name)
	if err := fileutil.CopyFile(stem, dest); err != nil {
		return services.Wrap(services.ErrFault, "finalize", "publish", dest, err)
	}
	if err := o.store.Succeed(id, PublicPath(id, name), name); err != nil {
		return halted(err)
	}

	logger := logging.WithContext(ctx, o.logger)
	root := layout.Root
	o.timers.After(id, o.reclaimAfter, func() { o.reclaimWorkDir(logger, root) })
	logger.Info("instrumental published",
		logging.String("path", dest),
		logging.Duration("reclaim_after", o.reclaimAfter),
		logging.String(logging.FieldEventType, "artifact_published"),
	)
	return nil
}

// PublicPath is the percent-encoded URL path of a published artifact. Every
// byte of id and name outside the unreserved set is escaped, so reserved
// characters such as & + = : never appear literally.
func PublicPath(id, name string) string {
	return path.Join(PublicPrefix, RequestDir, escapeSegment(id), escapeSegment(name))
}

func escapeSegment(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~'
}

func (o *Orchestrator) checkPending(id string) error {
	job, err := o.store.Get(id)
	if err != nil {
		return halted(err)
	}
	if job.Status.IsTerminal() {
		return halted(jobs.ErrTerminal)
	}
	return nil
}

func halted(err error) error {
	return fmt.Errorf("%w: %w", errHalted, err)
}

func (o *Orchestrator) recordFault(logger *slog.Logger, id string, err error, stack []byte) {
	message := fmt.Sprintf("Critical failure. Error: %v\n%s", err, stack)
	if failErr := o.store.Fail(id, message); failErr != nil {
		logger.Debug("critical failure not recorded", logging.Error(failErr))
	}
	logging.ErrorWithContext(logger, "job crashed", "job_fault",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.KindUnhandledFault),
		logging.String(logging.FieldErrorHint, "report the stack trace in the job error message"),
	)
}

func (o *Orchestrator) evict(id string) {
	if o.store.Delete(id) {
		o.logger.Info("job evicted",
			logging.String(logging.FieldJobID, id),
			logging.String(logging.FieldEventType, "job_evicted"),
		)
	}
}

func (o *Orchestrator) reclaimWorkDir(logger *slog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logger, "work directory not reclaimed", "work_dir_reclaim_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "directory remains until the stale sweep"),
		)
		return
	}
	logger.Info("work directory reclaimed",
		logging.String("path", dir),
		logging.String(logging.FieldEventType, "work_dir_reclaimed"),
	)
}

func validateURL(raw string) error {
	if raw == "" {
		return ErrInvalidURL
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	return nil
}
