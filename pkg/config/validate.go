package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProvider() error {
	u, err := url.Parse(c.Provider.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("provider.base_url must be an http(s) URL, got %q", c.Provider.BaseURL)
	}
	if c.Provider.StreamURL != "" {
		u, err := url.Parse(c.Provider.StreamURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("provider.stream_url must be a ws(s) URL, got %q", c.Provider.StreamURL)
		}
	}
	if c.Provider.TimeoutSeconds <= 0 {
		return errors.New("provider.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.DefaultDurationMinutes <= 0 {
		return errors.New("session.default_duration_minutes must be positive")
	}
	if c.Session.LookaheadHours < 0 {
		return errors.New("session.lookahead_hours must not be negative")
	}
	if c.Session.LocateIntervalSeconds <= 0 {
		return errors.New("session.locate_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.MaxAttempts <= 0 {
		return errors.New("feed.max_attempts must be positive")
	}
	if c.Feed.ReconnectDelaySeconds < 0 {
		return errors.New("feed.reconnect_delay_seconds must not be negative")
	}
	if c.Feed.ReceiveTimeoutSeconds <= 0 {
		return errors.New("feed.receive_timeout_seconds must be positive")
	}
	if c.Feed.PollIntervalSeconds <= 0 {
		return errors.New("feed.poll_interval_seconds must be positive")
	}
	if c.Feed.QueueSize <= 0 {
		return errors.New("feed.queue_size must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.LapWindow < 2 {
		return errors.New("store.lap_window must be at least 2")
	}
	if c.Store.StintWindow < 1 {
		return errors.New("store.stint_window must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Enabled && c.Server.BroadcastIntervalSeconds <= 0 {
		return errors.New("server.broadcast_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.Enabled && c.Notifications.TelegramToken == "" {
		return errors.New("notifications.telegram_token is required when notifications are enabled. Set TELEGRAM_TOKEN env var or edit the config file")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be console, json or auto, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
