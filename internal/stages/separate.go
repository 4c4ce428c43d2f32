package stages

import (
	"context"

	"vocalless/internal/fileutil"
	"vocalless/internal/logging"
	"vocalless/internal/services"
	"vocalless/internal/services/separator"
)

// MsgNoInstrumental is recorded when separation leaves no instrumental stem.
const MsgNoInstrumental = "No instrumental output found after source separation"

var instrumentalStem = MatchSuffix(separator.InstrumentsSuffix)

// Separate removes vocals from wav and returns the instrumental stem.
func (s *Set) Separate(ctx context.Context, jobID, wav string, layout Layout) (string, error) {
	ctx, logger := s.stageLogger(ctx, Separate)
	dir := layout.Separate()

	existing, found, err := fileutil.FirstMatch(dir, instrumentalStem)
	if err != nil {
		return "", services.Wrap(services.ErrFault, string(Separate), "probe", dir, err)
	}
	if found {
		logSkip(logger, Separate, "instrumental already separated", logging.String("path", existing))
		return existing, nil
	}

	if _, err := s.run.Run(ctx, jobID, DescSeparate, s.separator.Command(wav, dir)); err != nil {
		return "", err
	}
	stem, found, err := fileutil.FirstMatch(dir, instrumentalStem)
	if err != nil {
		return "", services.Wrap(services.ErrFault, string(Separate), "list", dir, err)
	}
	if !found {
		return "", services.Invariant(string(Separate), MsgNoInstrumental)
	}
	return stem, nil
}
