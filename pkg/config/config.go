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

// Provider configures the timing provider endpoints.
type Provider struct {
	BaseURL        string `toml:"base_url"`
	StreamURL      string `toml:"stream_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Session configures session discovery.
type Session struct {
	DefaultDurationMinutes int `toml:"default_duration_minutes"`
	LookaheadHours         int `toml:"lookahead_hours"`
	LocateIntervalSeconds  int `toml:"locate_interval_seconds"`
}

// Feed configures live ingestion.
type Feed struct {
	MaxAttempts           int  `toml:"max_attempts"`
	ReconnectDelaySeconds int  `toml:"reconnect_delay_seconds"`
	ReceiveTimeoutSeconds int  `toml:"receive_timeout_seconds"`
	PollIntervalSeconds   int  `toml:"poll_interval_seconds"`
	QueueSize             int  `toml:"queue_size"`
	FallbackToPolling     bool `toml:"fallback_to_polling"`
}

// Store bounds the in-memory history per driver.
type Store struct {
	LapWindow   int `toml:"lap_window"`
	StintWindow int `toml:"stint_window"`
}

// Server configures the JSON/websocket presentation server.
type Server struct {
	Enabled                  bool   `toml:"enabled"`
	Address                  string `toml:"address"`
	BroadcastIntervalSeconds int    `toml:"broadcast_interval_seconds"`
}

// Notifications configures session-start messages.
type Notifications struct {
	Enabled       bool   `toml:"enabled"`
	TelegramToken string `toml:"telegram_token"`
	DatabasePath  string `toml:"database_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full application configuration.
type Config struct {
	DataDir       string        `toml:"data_dir"`
	Provider      Provider      `toml:"provider"`
	Session       Session       `toml:"session"`
	Feed          Feed          `toml:"feed"`
	Store         Store         `toml:"store"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/f1livetiming/config.toml")
}

// Load locates, parses, normalizes and validates a configuration file. A missing file
// yields the defaults. It also reports the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
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
		expanded, err := ExpandPath(path)
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("f1livetiming.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves "~" and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a commented sample configuration to path.
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

// LockPath is the single-instance lock file used by the run command.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "f1livetiming.lock")
}

func (p Provider) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (s Session) DefaultDuration() time.Duration {
	return time.Duration(s.DefaultDurationMinutes) * time.Minute
}

func (s Session) Lookahead() time.Duration {
	return time.Duration(s.LookaheadHours) * time.Hour
}

func (s Session) LocateInterval() time.Duration {
	return time.Duration(s.LocateIntervalSeconds) * time.Second
}

func (f Feed) ReconnectDelay() time.Duration {
	return time.Duration(f.ReconnectDelaySeconds) * time.Second
}

func (f Feed) ReceiveTimeout() time.Duration {
	return time.Duration(f.ReceiveTimeoutSeconds) * time.Second
}

func (f Feed) PollInterval() time.Duration {
	return time.Duration(f.PollIntervalSeconds) * time.Second
}

func (s Server) BroadcastInterval() time.Duration {
	return time.Duration(s.BroadcastIntervalSeconds) * time.Second
}
