package stages

import (
	"context"
	"log/slog"

	"vocalless/internal/config"
	"vocalless/internal/logging"
	"vocalless/internal/runner"
	"vocalless/internal/services"
	"vocalless/internal/services/ffmpeg"
	"vocalless/internal/services/separator"
	"vocalless/internal/services/ytdl"
)

// ProcessRunner executes one external command on behalf of a job.
type ProcessRunner interface {
	Run(ctx context.Context, jobID, description string, cmd runner.Command) (string, error)
}

// SourceCache resolves previously seen URLs without launching the downloader.
type SourceCache interface {
	Lookup(ctx context.Context, url string) (string, bool, error)
	Store(ctx context.Context, url, sourceID string) error
}

// Set bundles the stage implementations sharing one runner and configuration.
type Set struct {
	run       ProcessRunner
	cache     SourceCache
	ytdl      *ytdl.Client
	ffmpeg    *ffmpeg.Client
	separator *separator.Client
	audio     Probe
	logger    *slog.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithSourceCache enables the lookup skip probe.
func WithSourceCache(cache SourceCache) Option {
	return func(s *Set) {
		s.cache = cache
	}
}

// WithAudioProbe overrides which downloaded files satisfy the download probe.
func WithAudioProbe(probe Probe) Option {
	return func(s *Set) {
		if probe != nil {
			s.audio = probe
		}
	}
}

// New builds the stage set for cfg.
func New(cfg *config.Config, run ProcessRunner, logger *slog.Logger, opts ...Option) *Set {
	s := &Set{
		run:    run,
		ytdl:   ytdl.New(cfg.Tools.YtdlBinary, cfg.Tools.FFmpegDir),
		ffmpeg: ffmpeg.New(cfg.Tools.FFmpegDir),
		separator: separator.New(separator.Config{
			Python:    cfg.Tools.PythonBinary,
			RepoPath:  cfg.Tools.VocalRemoverPath,
			ExtraArgs: cfg.Tools.SeparatorArgs,
		}),
		audio:  MatchSuffix(cfg.Pipeline.AudioExtensions...),
		logger: logging.NewComponentLogger(logger, "stages"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Set) stageLogger(ctx context.Context, name Name) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, string(name))
	return ctx, logging.WithContext(ctx, s.logger)
}

func logSkip(logger *slog.Logger, name Name, reason string, attrs ...logging.Attr) {
	attrs = append(attrs, logging.DecisionAttrs("stage_skip", "skipped", reason)...)
	attrs = append(attrs, logging.String(logging.FieldEventType, "stage_skipped"))
	logger.Info(name.Label()+" skipped", logging.Args(attrs...)...)
}
