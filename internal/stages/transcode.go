package stages

import (
	"context"

	"vocalless/internal/fileutil"
	"vocalless/internal/logging"
	"vocalless/internal/services"
	"vocalless/internal/services/ffmpeg"
)

// MsgTranscodeFailed is recorded when ffmpeg exits cleanly without output.
const MsgTranscodeFailed = "Failed to convert audio file to WAV format"

var canonicalAudio = MatchSuffix(ffmpeg.CanonicalExt)

// Transcode returns a canonical WAV for input, converting it when needed.
func (s *Set) Transcode(ctx context.Context, jobID, input string, layout Layout) (string, error) {
	ctx, logger := s.stageLogger(ctx, Transcode)

	if ffmpeg.IsCanonical(input) {
		logSkip(logger, Transcode, "input already wav", logging.String("path", input))
		return input, nil
	}

	dir := layout.Transcode()
	existing, found, err := fileutil.FirstMatch(dir, canonicalAudio)
	if err != nil {
		return "", services.Wrap(services.ErrFault, string(Transcode), "probe", dir, err)
	}
	if found {
		logSkip(logger, Transcode, "wav already converted", logging.String("path", existing))
		return existing, nil
	}

	if _, err := s.run.Run(ctx, jobID, DescTranscode, s.ffmpeg.TranscodeCommand(input, dir)); err != nil {
		return "", err
	}
	converted, found, err := fileutil.FirstMatch(dir, canonicalAudio)
	if err != nil {
		return "", services.Wrap(services.ErrFault, string(Transcode), "list", dir, err)
	}
	if !found {
		return "", services.Invariant(string(Transcode), MsgTranscodeFailed)
	}
	return converted, nil
}
