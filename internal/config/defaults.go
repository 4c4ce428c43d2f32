package config

const (
	defaultConfigPath             = "~/.config/vocalless/config.toml"
	defaultPublicDir              = "~/.local/share/vocalless/static"
	defaultStateDir               = "~/.local/share/vocalless"
	defaultLogDir                 = "~/.local/share/vocalless/logs"
	defaultAPIBind                = "127.0.0.1:8000"
	defaultYtdlBinary             = "youtube-dl"
	defaultPythonBinary           = "python"
	defaultMaxJobs                = 2
	defaultEvictionDelayMinutes   = 60
	defaultDirReclaimDelayMinutes = 30
	defaultSweepSchedule          = "@every 1h"
	defaultStaleAfterHours        = 24
	defaultSourceCacheFile        = "sources.db"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

var (
	defaultSeparatorArgs   = []string{"--tta"}
	defaultAudioExtensions = []string{".wav", ".m4a", ".mp3", ".opus", ".ogg", ".webm", ".flac", ".aac"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			PublicDir: defaultPublicDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Tools: Tools{
			YtdlBinary:    defaultYtdlBinary,
			PythonBinary:  defaultPythonBinary,
			SeparatorArgs: append([]string(nil), defaultSeparatorArgs...),
		},
		Pipeline: Pipeline{
			MaxJobs:                defaultMaxJobs,
			EvictionDelayMinutes:   defaultEvictionDelayMinutes,
			DirReclaimDelayMinutes: defaultDirReclaimDelayMinutes,
			AudioExtensions:        append([]string(nil), defaultAudioExtensions...),
		},
		Cleanup: Cleanup{
			Enabled:         true,
			SweepSchedule:   defaultSweepSchedule,
			StaleAfterHours: defaultStaleAfterHours,
		},
		SourceCache: SourceCache{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
