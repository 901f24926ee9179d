package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeCleaning()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if trimmed := strings.TrimSpace(c.Paths.StatePath); trimmed == "" {
		c.Paths.StatePath = ""
	} else if c.Paths.StatePath, err = expandPath(trimmed); err != nil {
		return fmt.Errorf("paths.state_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() {
	c.Watch.Mode = strings.ToLower(strings.TrimSpace(c.Watch.Mode))
	if c.Watch.Mode == "" {
		c.Watch.Mode = ModeEvent
	}
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = defaultPollInterval
	}
	if c.Watch.SettleMillis < 0 {
		c.Watch.SettleMillis = 0
	}

	normalized := make([]string, 0, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Watch.Extensions = normalized
}

func (c *Config) normalizeCleaning() {
	c.Cleaning.ExiftoolBinary = strings.TrimSpace(c.Cleaning.ExiftoolBinary)
	if c.Cleaning.ExiftoolBinary == "" {
		c.Cleaning.ExiftoolBinary = defaultExiftoolBinary
	}
	c.Cleaning.QpdfBinary = strings.TrimSpace(c.Cleaning.QpdfBinary)
	if c.Cleaning.QpdfBinary == "" {
		c.Cleaning.QpdfBinary = defaultQpdfBinary
	}
	if c.Cleaning.Timeout <= 0 {
		c.Cleaning.Timeout = defaultCleaningTimeout
	}
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
