package ffmpeg

import (
	"path/filepath"
	"strings"

	"vocalless/internal/runner"
)

// Transcode target parameters.
const (
	CanonicalExt = ".wav"
	SampleRate   = "16000"
	Channels     = "1"
	Codec        = "pcm_s16le"
)

// Command is the executable name inside the configured ffmpeg directory.
const Command = "ffmpeg"

// Client builds ffmpeg commands.
type Client struct {
	binary string
}

// New constructs a Client for the ffmpeg found in dir. An empty dir resolves
// ffmpeg from PATH.
func New(dir string) *Client {
	binary := Command
	if strings.TrimSpace(dir) != "" {
		binary = filepath.Join(dir, Command)
	}
	return &Client{binary: binary}
}

// Binary returns the ffmpeg executable path.
func (c *Client) Binary() string {
	return c.binary
}

// IsCanonical reports whether path already has the transcode target suffix.
func IsCanonical(path string) bool {
	return strings.EqualFold(filepath.Ext(path), CanonicalExt)
}

// OutputPath returns the WAV destination for source inside outDir.
func OutputPath(source, outDir string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+CanonicalExt)
}

// TranscodeCommand converts source into OutputPath(source, outDir).
func (c *Client) TranscodeCommand(source, outDir string) runner.Command {
	return runner.Command{
		Binary: c.binary,
		Args: []string{
			"-y",
			"-i", source,
			"-ar", SampleRate,
			"-ac", Channels,
			"-c:a", Codec,
			OutputPath(source, outDir),
		},
	}
}
