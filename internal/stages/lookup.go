package stages

import (
	"context"

	"vocalless/internal/logging"
	"vocalless/internal/services"
	"vocalless/internal/services/ytdl"
)

// MsgNoSourceID is recorded when the downloader resolves the URL to nothing.
const MsgNoSourceID = "No video ID returned for the source URL"

// Lookup resolves url to a directory-safe source identifier.
func (s *Set) Lookup(ctx context.Context, jobID, url string) (string, error) {
	ctx, logger := s.stageLogger(ctx, Lookup)

	if s.cache != nil {
		cached, ok, err := s.cache.Lookup(ctx, url)
		if err != nil {
			logging.WarnWithContext(logger, "source cache lookup failed", "source_cache_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "source id will be resolved by the downloader"),
			)
		}
		if ok {
			if id := SanitizeSourceID(cached); id != "" {
				logSkip(logger, Lookup, "source id cached", logging.String(logging.FieldSourceID, id))
				return id, nil
			}
		}
	}

	out, err := s.run.Run(ctx, jobID, DescLookup, s.ytdl.LookupCommand(url))
	if err != nil {
		return "", err
	}
	id := SanitizeSourceID(ytdl.ParseID(out))
	if id == "" {
		return "", services.Invariant(string(Lookup), MsgNoSourceID)
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, url, id); err != nil {
			logging.WarnWithContext(logger, "source id not cached", "source_cache_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next submission of this url runs lookup again"),
			)
		}
	}
	logger.Info("source id resolved", logging.String(logging.FieldSourceID, id))
	return id, nil
}
