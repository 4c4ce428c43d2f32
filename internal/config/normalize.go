package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted when the matching config key is empty.
const (
	envWorkDir          = "TEMP_DIR"
	envVocalRemoverPath = "VOCAL_REMOVER_PATH"
	envFFmpegDir        = "YOUTUBE_DL_FFMPEG_PATH"
)

// loadDotEnv populates the process environment from a .env file in the
// working directory. Variables already set take precedence.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizePipeline()
	if err := c.normalizeSourceCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	fallback := func(target *string, key string) {
		if strings.TrimSpace(*target) != "" {
			return
		}
		if value, ok := os.LookupEnv(key); ok {
			*target = strings.TrimSpace(value)
		}
	}
	fallback(&c.Paths.WorkDir, envWorkDir)
	fallback(&c.Tools.VocalRemoverPath, envVocalRemoverPath)
	fallback(&c.Tools.FFmpegDir, envFFmpegDir)
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.work_dir", &c.Paths.WorkDir},
		{"paths.public_dir", &c.Paths.PublicDir},
		{"paths.state_dir", &c.Paths.StateDir},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if c.Tools.FFmpegDir, err = expandPath(strings.TrimSpace(c.Tools.FFmpegDir)); err != nil {
		return fmt.Errorf("tools.ffmpeg_dir: %w", err)
	}
	if c.Tools.VocalRemoverPath, err = expandPath(strings.TrimSpace(c.Tools.VocalRemoverPath)); err != nil {
		return fmt.Errorf("tools.vocal_remover_path: %w", err)
	}
	c.Tools.YtdlBinary = strings.TrimSpace(c.Tools.YtdlBinary)
	if c.Tools.YtdlBinary == "" {
		c.Tools.YtdlBinary = defaultYtdlBinary
	}
	c.Tools.PythonBinary = strings.TrimSpace(c.Tools.PythonBinary)
	if c.Tools.PythonBinary == "" {
		c.Tools.PythonBinary = defaultPythonBinary
	}
	args := c.Tools.SeparatorArgs[:0]
	for _, arg := range c.Tools.SeparatorArgs {
		if arg = strings.TrimSpace(arg); arg != "" {
			args = append(args, arg)
		}
	}
	c.Tools.SeparatorArgs = args
	return nil
}

func (c *Config) normalizePipeline() {
	seen := make(map[string]struct{}, len(c.Pipeline.AudioExtensions))
	exts := make([]string, 0, len(c.Pipeline.AudioExtensions))
	for _, ext := range c.Pipeline.AudioExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultAudioExtensions...)
	}
	c.Pipeline.AudioExtensions = exts
	c.Cleanup.SweepSchedule = strings.TrimSpace(c.Cleanup.SweepSchedule)
	if c.Cleanup.SweepSchedule == "" {
		c.Cleanup.SweepSchedule = defaultSweepSchedule
	}
}

func (c *Config) normalizeSourceCache() error {
	path := strings.TrimSpace(c.SourceCache.Path)
	if path == "" {
		c.SourceCache.Path = filepath.Join(c.Paths.StateDir, defaultSourceCacheFile)
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("source_cache.path: %w", err)
	}
	c.SourceCache.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
