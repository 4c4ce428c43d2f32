package stages

import (
	"context"
	"path/filepath"
	"strings"

	"vocalless/internal/fileutil"
	"vocalless/internal/logging"
	"vocalless/internal/services"
)

// Post-condition messages for the download stage.
const (
	MsgNoAudio       = "No audio file found after downloading the source audio"
	MsgMultipleAudio = "Multiple files found after download. Please ensure only one audio file is present. Files: "
)

// Download fetches the source audio into the layout and returns the single
// downloaded file.
func (s *Set) Download(ctx context.Context, jobID, url string, layout Layout) (string, error) {
	ctx, logger := s.stageLogger(ctx, Download)
	dir := layout.Download()

	existing, found, err := fileutil.FirstMatch(dir, s.audio)
	if err != nil {
		return "", services.Wrap(services.ErrFault, string(Download), "probe", dir, err)
	}
	if found {
		logSkip(logger, Download, "audio already downloaded", logging.String("path", existing))
	} else if _, err := s.run.Run(ctx, jobID, DescDownload, s.ytdl.DownloadCommand(url, dir)); err != nil {
		return "", err
	}

	names, err := fileutil.RegularFiles(dir)
	if err != nil {
		return "", services.Wrap(services.ErrFault, string(Download), "list", dir, err)
	}
	switch len(names) {
	case 0:
		return "", services.Invariant(string(Download), MsgNoAudio)
	case 1:
		return filepath.Join(dir, names[0]), nil
	default:
		return "", services.Invariant(string(Download), MsgMultipleAudio+strings.Join(names, ", "))
	}
}
