package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.Storage.URL) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/racenotes/config.toml"
		}
		return fmt.Errorf("storage.url is required. Edit %s (create with 'racenotes config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Storage.URL, "http://") && !strings.HasPrefix(c.Storage.URL, "https://") {
		return fmt.Errorf("storage.url must be an http(s) endpoint, got %q", c.Storage.URL)
	}
	if strings.Contains(c.Storage.Bucket, "/") {
		return fmt.Errorf("storage.bucket must not contain path separators, got %q", c.Storage.Bucket)
	}
	if c.Storage.MaxAttempts > 10 {
		return errors.New("storage.max_attempts must be 10 or fewer")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.ImageQuality < 1 || c.Media.ImageQuality > 100 {
		return errors.New("media.image_quality must be between 1 and 100")
	}
	if c.Media.ImageMaxWidth < 16 || c.Media.ImageMaxHeight < 16 {
		return errors.New("media.image_max_width and media.image_max_height must be at least 16")
	}
	if c.Media.VideoMaxWidth < 16 || c.Media.VideoMaxHeight < 16 {
		return errors.New("media.video_max_width and media.video_max_height must be at least 16")
	}
	if c.Media.VideoMaxWidth%2 != 0 || c.Media.VideoMaxHeight%2 != 0 {
		return errors.New("media.video_max_width and media.video_max_height must be even")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
