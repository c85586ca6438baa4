package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.URL = strings.TrimRight(strings.TrimSpace(c.Storage.URL), "/")
	if c.Storage.APIKey == "" {
		c.Storage.APIKey = strings.TrimSpace(os.Getenv("RACENOTES_STORAGE_KEY"))
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		c.Storage.Bucket = defaultStorageBucket
	}
	if c.Storage.RequestTimeout <= 0 {
		c.Storage.RequestTimeout = defaultStorageTimeout
	}
	if c.Storage.MaxAttempts <= 0 {
		c.Storage.MaxAttempts = defaultStorageAttempts
	}
}

func (c *Config) normalizeMedia() {
	if c.Media.ImageMaxWidth <= 0 {
		c.Media.ImageMaxWidth = defaultImageMaxWidth
	}
	if c.Media.ImageMaxHeight <= 0 {
		c.Media.ImageMaxHeight = defaultImageMaxHeight
	}
	if c.Media.ImageQuality <= 0 {
		c.Media.ImageQuality = defaultImageQuality
	}
	if c.Media.VideoMaxWidth <= 0 {
		c.Media.VideoMaxWidth = defaultVideoMaxWidth
	}
	if c.Media.VideoMaxHeight <= 0 {
		c.Media.VideoMaxHeight = defaultVideoMaxHeight
	}
	if strings.TrimSpace(c.Media.VideoBitrate) == "" {
		c.Media.VideoBitrate = defaultVideoBitrate
	}
	if c.Media.MinFreeStagingMiB < 0 {
		c.Media.MinFreeStagingMiB = 0
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
