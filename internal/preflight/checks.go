package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"vocalless/internal/config"
	"vocalless/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSeparatorCheckout verifies the vocal remover checkout is readable and
// carries its inference entrypoint. The separator runs with the checkout as
// its working directory, so write access is not required.
func CheckSeparatorCheckout(repo, script string) Result {
	const name = "Vocal remover"
	info, err := os.Stat(repo)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", repo, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", repo)}
	}
	if err := unix.Access(repo, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", repo, err)}
	}
	scriptInfo, err := os.Stat(script)
	if err != nil || scriptInfo.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: inference script missing)", script)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (ok)", script)}
}

// CheckSystemDeps evaluates the external programs the pipeline drives. Both
// the daemon and the CLI deps command use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "youtube-dl",
			Command:     cfg.Tools.YtdlBinary,
			Description: "Required for source lookup and audio download",
		},
		{
			Name:        "Python",
			Command:     cfg.Tools.PythonBinary,
			Description: "Required to run the vocal remover",
		},
	})
	return append(statuses, deps.CheckFFmpegDir(cfg.Tools.FFmpegDir))
}
