package ytdl

import (
	"path/filepath"
	"strings"

	"vocalless/internal/runner"
)

// DefaultBinary is used when no downloader is configured.
const DefaultBinary = "youtube-dl"

// OutputTemplate names downloaded files after the source title.
const OutputTemplate = "%(title)s.%(ext)s"

// Client builds downloader commands.
type Client struct {
	binary    string
	ffmpegDir string
}

// New constructs a Client. ffmpegDir is handed to the downloader for its
// audio extraction post-processing.
func New(binary, ffmpegDir string) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{binary: binary, ffmpegDir: ffmpegDir}
}

// Binary returns the downloader executable.
func (c *Client) Binary() string {
	return c.binary
}

// LookupCommand prints the source identifier for url without downloading.
func (c *Client) LookupCommand(url string) runner.Command {
	return runner.Command{
		Binary: c.binary,
		Args:   []string{"--get-id", url},
	}
}

// DownloadCommand extracts the best audio stream of url into destDir.
func (c *Client) DownloadCommand(url, destDir string) runner.Command {
	args := []string{
		"--extract-audio",
		"--output", filepath.Join(destDir, OutputTemplate),
		"--add-metadata",
		"--embed-thumbnail",
		"--newline",
	}
	if c.ffmpegDir != "" {
		args = append(args, "--ffmpeg-location", c.ffmpegDir)
	}
	args = append(args, url)
	return runner.Command{Binary: c.binary, Args: args}
}

// ParseID returns the first non-empty line of lookup output.
func ParseID(stdout string) string {
	for _, line := range strings.Split(stdout, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
