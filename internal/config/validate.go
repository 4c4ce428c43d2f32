package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRequiredPaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRequiredPaths() error {
	required := []struct {
		key   string
		env   string
		value string
	}{
		{"tools.vocal_remover_path", envVocalRemoverPath, c.Tools.VocalRemoverPath},
		{"paths.work_dir", envWorkDir, c.Paths.WorkDir},
		{"tools.ffmpeg_dir", envFFmpegDir, c.Tools.FFmpegDir},
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("%s is required. Set %s or edit %s (create with 'vocalless config init')", req.key, req.env, defaultPath)
		}
		info, err := os.Stat(req.value)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%s: %s does not exist", req.key, req.value)
			}
			return fmt.Errorf("%s: %w", req.key, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: %s is not a directory", req.key, req.value)
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxJobs < 1 {
		return errors.New("pipeline.max_jobs must be at least 1")
	}
	if c.Pipeline.EvictionDelayMinutes <= 0 {
		return errors.New("pipeline.eviction_delay_minutes must be positive")
	}
	if c.Pipeline.DirReclaimDelayMinutes < 0 {
		return errors.New("pipeline.dir_reclaim_delay_minutes must be zero or positive")
	}
	if c.Pipeline.StageTimeoutMinutes < 0 {
		return errors.New("pipeline.stage_timeout_minutes must be zero or positive")
	}
	return nil
}

func (c *Config) validateCleanup() error {
	if !c.Cleanup.Enabled {
		return nil
	}
	if c.Cleanup.StaleAfterHours <= 0 {
		return errors.New("cleanup.stale_after_hours must be positive when cleanup.enabled is true")
	}
	if _, err := cron.ParseStandard(c.Cleanup.SweepSchedule); err != nil {
		return fmt.Errorf("cleanup.sweep_schedule: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
