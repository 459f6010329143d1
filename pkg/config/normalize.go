package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if c.DataDir, err = ExpandPath(c.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	c.normalizeProvider()
	c.normalizeServer()
	if err := c.normalizeNotifications(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeProvider() {
	if value, ok := os.LookupEnv("OPENF1_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Provider.BaseURL = value
	}
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultBaseURL
	}
	c.Provider.StreamURL = strings.TrimSpace(c.Provider.StreamURL)
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("WEBSERVER_ADDRESS"); ok && strings.TrimSpace(value) != "" {
		c.Server.Address = value
	}
	c.Server.Address = strings.TrimSpace(c.Server.Address)
	if c.Server.Address == "" {
		c.Server.Address = defaultServerAddress
	}
}

func (c *Config) normalizeNotifications() error {
	if value, ok := os.LookupEnv("TELEGRAM_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.TelegramToken = value
	}
	c.Notifications.TelegramToken = strings.TrimSpace(c.Notifications.TelegramToken)
	if strings.TrimSpace(c.Notifications.DatabasePath) == "" {
		c.Notifications.DatabasePath = filepath.Join(c.DataDir, defaultDatabaseName)
		return nil
	}
	var err error
	if c.Notifications.DatabasePath, err = ExpandPath(c.Notifications.DatabasePath); err != nil {
		return fmt.Errorf("notifications.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
