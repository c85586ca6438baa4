package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"racenotes/internal/config"
	"racenotes/internal/logging"
	"racenotes/internal/media/imaging"
	"racenotes/internal/media/sizing"
	"racenotes/internal/media/videoenc"
	"racenotes/internal/notes"
	"racenotes/internal/pipeline"
	"racenotes/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, logErr := logging.NewFromConfig(cfg)
		if logErr != nil {
			logger = slog.New(logging.NoopHandler{})
		}
		c.logger = logger
	})
	return c.logger, nil
}

func (c *commandContext) openStore() (*notes.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return notes.Open(cfg)
}

// buildPipeline wires the full media path: image transcoder, video backend
// variant, storage client, and retrying gateway.
func (c *commandContext) buildPipeline() (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	imagePolicy := sizing.DefaultImagePolicy()
	imagePolicy.MaxWidth = cfg.Media.ImageMaxWidth
	imagePolicy.MaxHeight = cfg.Media.ImageMaxHeight
	imagePolicy.Quality = cfg.Media.ImageQuality

	videoPolicy := sizing.DefaultVideoPolicy()
	videoPolicy.MaxWidth = cfg.Media.VideoMaxWidth
	videoPolicy.MaxHeight = cfg.Media.VideoMaxHeight
	videoPolicy.Bitrate = cfg.Media.VideoBitrate

	var heic imaging.HEICConverter
	if _, _, ok := videoBackend(cfg); ok {
		heic = imaging.NewFFmpegHEICConverter(cfg.FFmpegBinary())
	}
	images := imaging.NewTranscoder(imagePolicy, heic, logger)

	videos := videoenc.New(videoenc.Options{
		Policy:        videoPolicy,
		FFmpegBinary:  cfg.FFmpegBinary(),
		FFprobeBinary: cfg.FFprobeBinary(),
		StagingRoot:   cfg.Paths.StagingDir,
		MinFreeBytes:  int64(cfg.Media.MinFreeStagingMiB) * 1024 * 1024,
		Logger:        logger,
	})

	client, err := c.storageClient()
	if err != nil {
		return nil, err
	}
	gateway := storage.NewGateway(client, cfg.Storage.MaxAttempts, logger)

	return pipeline.New(images, videos, gateway, logger), nil
}

func (c *commandContext) storageClient() (*storage.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return storage.NewClient(storage.ClientOptions{
		URL:     cfg.Storage.URL,
		APIKey:  cfg.Storage.APIKey,
		Bucket:  cfg.Storage.Bucket,
		Timeout: time.Duration(cfg.Storage.RequestTimeout) * time.Second,
		Logger:  logger,
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
