package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpegDir reports the ffmpeg executable inside dir. The downloader is
// pointed at the same directory for its audio extraction step, so a PATH
// ffmpeg does not count.
func CheckFFmpegDir(dir string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used for audio extraction and WAV conversion",
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		result.Detail = "ffmpeg directory not configured"
		return result
	}
	name := "ffmpeg"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(dir, name)
	result.Command = candidate

	info, err := os.Stat(candidate)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", candidate)
		return result
	}
	if !isExecutable(info) {
		result.Detail = fmt.Sprintf("%q is not executable", candidate)
		return result
	}
	result.Available = true
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
