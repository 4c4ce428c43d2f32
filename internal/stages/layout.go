package stages

import (
	"path/filepath"
	"regexp"
	"strings"

	"vocalless/internal/fileutil"
)

// Layout is the working directory tree of one source.
type Layout struct {
	Root string
}

// NewLayout returns the layout for sourceID under workDir.
func NewLayout(workDir, sourceID string) Layout {
	return Layout{Root: filepath.Join(workDir, sourceID)}
}

func (l Layout) Download() string  { return filepath.Join(l.Root, "download") }
func (l Layout) Transcode() string { return filepath.Join(l.Root, "transcode") }
func (l Layout) Separate() string  { return filepath.Join(l.Root, "separate") }

// Ensure creates the stage directories.
func (l Layout) Ensure() error {
	return fileutil.EnsureDirs(l.Download(), l.Transcode(), l.Separate())
}

var unsafeSourceChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeSourceID makes id safe to use as a single directory name. The
// result is empty when nothing usable remains.
func SanitizeSourceID(id string) string {
	cleaned := unsafeSourceChars.ReplaceAllString(strings.TrimSpace(id), "_")
	cleaned = strings.Trim(cleaned, "_")
	if len(cleaned) > 128 {
		cleaned = cleaned[:128]
	}
	return cleaned
}
