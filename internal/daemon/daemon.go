package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"vocalless/internal/config"
	"vocalless/internal/jobs"
	"vocalless/internal/logging"
	"vocalless/internal/pipeline"
	"vocalless/internal/preflight"
	"vocalless/internal/runner"
	"vocalless/internal/sourcecache"
	"vocalless/internal/stages"
	"vocalless/internal/staging"
)

// LockFileName is created inside the state directory while a daemon runs.
const LockFileName = "vocalless.lock"

// Option configures a Daemon.
type Option func(*options)

type options struct {
	executor     runner.Executor
	pipelineOpts []pipeline.Option
}

// WithExecutor replaces the process executor (primarily for tests).
func WithExecutor(exec runner.Executor) Option {
	return func(o *options) {
		o.executor = exec
	}
}

// WithPipelineOptions forwards options to the orchestrator.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// Daemon owns the job store, the pipeline, and the HTTP surface.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	cache    *sourcecache.Cache
	pipeline *pipeline.Orchestrator
	sweeper  *staging.Sweeper
	router   http.Handler

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	addr      atomic.Value
	closeOnce sync.Once
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    jobs.NewStore(),
		lockPath: filepath.Join(cfg.Paths.StateDir, LockFileName),
	}
	d.lock = flock.New(d.lockPath)

	run := runner.New(d.store, logger,
		runner.WithExecutor(o.executor),
		runner.WithTimeout(cfg.StageTimeout()),
	)
	var stageOpts []stages.Option
	if cfg.SourceCache.Enabled {
		cache, err := sourcecache.Open(cfg.SourceCache.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open source cache: %w", err)
		}
		d.cache = cache
		stageOpts = append(stageOpts, stages.WithSourceCache(cache))
	}
	set := stages.New(cfg, run, logger, stageOpts...)
	d.pipeline = pipeline.New(context.Background(), cfg, d.store, set, logger, o.pipelineOpts...)

	if cfg.Cleanup.Enabled {
		d.sweeper = staging.NewSweeper(cfg.Cleanup.SweepSchedule, cfg.StaleAfter(), d.inUse, logger,
			cfg.Paths.WorkDir,
			filepath.Join(cfg.Paths.PublicDir, pipeline.RequestDir),
		)
	}
	d.router = d.routes()
	return d, nil
}

// Handler returns the HTTP API.
func (d *Daemon) Handler() http.Handler {
	return d.router
}

// Store exposes the job store backing the API.
func (d *Daemon) Store() *jobs.Store {
	return d.store
}

// Addr returns the address the API listens on once Run has bound it.
func (d *Daemon) Addr() string {
	if v, ok := d.addr.Load().(string); ok {
		return v
	}
	return ""
}

// LockPath returns the single-instance lock file path.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Run acquires the daemon lock, serves the API, and runs the stale sweep
// until ctx is cancelled. In-flight jobs are cancelled on return.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vocalless daemon instance is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	for _, check := range preflight.Failed(preflight.RunAll(d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this will fail"),
			logging.String(logging.FieldErrorHint, "run vocalless deps for details"),
		)
	}

	listener, err := net.Listen("tcp", d.cfg.Paths.APIBind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	d.addr.Store(listener.Addr().String())
	server := &http.Server{
		Handler:           d.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if d.sweeper != nil {
		g.Go(func() error {
			return d.sweeper.Run(gctx)
		})
	}

	d.logger.Info("vocalless daemon started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath),
		logging.Int("max_jobs", d.cfg.Pipeline.MaxJobs),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	err = g.Wait()
	d.pipeline.Close()
	d.logger.Info("vocalless daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
	return err
}

// Close cancels in-flight jobs and releases the source cache.
func (d *Daemon) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.pipeline.Close()
		if d.cache != nil {
			err = d.cache.Close()
		}
	})
	return err
}

// inUse keeps directories of live jobs out of the stale sweep: work dirs of
// pending jobs and public dirs of any job still tracked.
func (d *Daemon) inUse(name string) bool {
	for _, job := range d.store.List() {
		if job.ID == name {
			return true
		}
		if !job.Status.IsTerminal() && job.SourceID != "" && stages.SanitizeSourceID(job.SourceID) == name {
			return true
		}
	}
	return false
}
