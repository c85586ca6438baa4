package config

const (
	defaultStagingDir        = "~/.local/share/racenotes/staging"
	defaultDataDir           = "~/.local/share/racenotes"
	defaultLogDir            = "~/.local/share/racenotes/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultStorageBucket     = "racing-notes-media"
	defaultStorageTimeout    = 30
	defaultStorageAttempts   = 5
	defaultImageMaxWidth     = 1920
	defaultImageMaxHeight    = 1080
	defaultImageQuality      = 85
	defaultVideoMaxWidth     = 1280
	defaultVideoMaxHeight    = 720
	defaultVideoBitrate      = "1M"
	defaultMinFreeStagingMiB = 512
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Storage: Storage{
			Bucket:         defaultStorageBucket,
			RequestTimeout: defaultStorageTimeout,
			MaxAttempts:    defaultStorageAttempts,
		},
		Media: Media{
			ImageMaxWidth:     defaultImageMaxWidth,
			ImageMaxHeight:    defaultImageMaxHeight,
			ImageQuality:      defaultImageQuality,
			VideoMaxWidth:     defaultVideoMaxWidth,
			VideoMaxHeight:    defaultVideoMaxHeight,
			VideoBitrate:      defaultVideoBitrate,
			MinFreeStagingMiB: defaultMinFreeStagingMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
