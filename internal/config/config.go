package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	PublicDir string `toml:"public_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Tools locates the external programs driven by the pipeline.
type Tools struct {
	YtdlBinary       string   `toml:"ytdl_binary"`
	FFmpegDir        string   `toml:"ffmpeg_dir"`
	PythonBinary     string   `toml:"python_binary"`
	VocalRemoverPath string   `toml:"vocal_remover_path"`
	SeparatorArgs    []string `toml:"separator_args"`
}

// Pipeline contains admission and reclamation tuning.
type Pipeline struct {
	MaxJobs                int      `toml:"max_jobs"`
	EvictionDelayMinutes   int      `toml:"eviction_delay_minutes"`
	DirReclaimDelayMinutes int      `toml:"dir_reclaim_delay_minutes"`
	StageTimeoutMinutes    int      `toml:"stage_timeout_minutes"`
	AudioExtensions        []string `toml:"audio_extensions"`
}

// Cleanup controls the periodic sweep of leftover work and public directories.
type Cleanup struct {
	Enabled         bool   `toml:"enabled"`
	SweepSchedule   string `toml:"sweep_schedule"`
	StaleAfterHours int    `toml:"stale_after_hours"`
}

// SourceCache configures the persistent URL to source ID cache.
type SourceCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vocalless.
//
// Configuration sections by subsystem:
//   - Paths: working root, public artifact root, state, logs, and API bind
//   - Tools: downloader, ffmpeg directory, and the vocal remover checkout
//   - Pipeline: admission ceiling, reclamation delays, stage timeout
//   - Cleanup: cron schedule for the stale directory sweep
//   - SourceCache: sqlite cache of resolved source IDs
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Tools       Tools       `toml:"tools"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Cleanup     Cleanup     `toml:"cleanup"`
	SourceCache SourceCache `toml:"source_cache"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	loadDotEnv()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vocalless.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon owns. The work and
// tool directories are required to exist already and are never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.PublicDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable inside the configured ffmpeg directory.
func (c *Config) FFmpegBinary() string {
	return filepath.Join(c.Tools.FFmpegDir, "ffmpeg")
}

// SeparatorScript returns the inference entrypoint of the vocal remover checkout.
func (c *Config) SeparatorScript() string {
	return filepath.Join(c.Tools.VocalRemoverPath, "inference.py")
}

// EvictionDelay is how long a job record stays queryable after creation.
func (c *Config) EvictionDelay() time.Duration {
	return time.Duration(c.Pipeline.EvictionDelayMinutes) * time.Minute
}

// DirReclaimDelay is how long a source working directory survives after success.
func (c *Config) DirReclaimDelay() time.Duration {
	return time.Duration(c.Pipeline.DirReclaimDelayMinutes) * time.Minute
}

// StageTimeout bounds a single external process. Zero disables the limit.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Pipeline.StageTimeoutMinutes) * time.Minute
}

// StaleAfter is the age beyond which the cleanup sweep removes directories.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Cleanup.StaleAfterHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
