package staging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"vocalless/internal/logging"
)

// Sweeper periodically removes stale directories below a set of roots. Runs
// never overlap: a tick arriving while a sweep is in progress joins it.
type Sweeper struct {
	roots    []string
	maxAge   time.Duration
	schedule string
	keep     func(name string) bool
	logger   *slog.Logger
	group    singleflight.Group
}

// NewSweeper constructs a sweeper over roots. keep may be nil.
func NewSweeper(schedule string, maxAge time.Duration, keep func(name string) bool, logger *slog.Logger, roots ...string) *Sweeper {
	return &Sweeper{
		roots:    roots,
		maxAge:   maxAge,
		schedule: schedule,
		keep:     keep,
		logger:   logging.NewComponentLogger(logger, "sweeper"),
	}
}

// Sweep runs one pass over every root.
func (s *Sweeper) Sweep(ctx context.Context) CleanStaleResult {
	v, _, _ := s.group.Do("sweep", func() (any, error) {
		var result CleanStaleResult
		for _, root := range s.roots {
			result.Merge(CleanStale(ctx, root, s.maxAge, s.keep, s.logger))
		}
		return result, nil
	})
	result := v.(CleanStaleResult)
	s.logger.Debug("sweep finished",
		logging.Int("removed", len(result.Removed)),
		logging.Int("errors", len(result.Errors)),
	)
	return result
}

// Run schedules Sweep on the cron schedule and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.schedule, err)
	}
	c.Start()
	s.logger.Info("stale directory sweep scheduled",
		logging.String("schedule", s.schedule),
		logging.Duration("max_age", s.maxAge),
		logging.String(logging.FieldEventType, "sweep_scheduled"),
	)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
