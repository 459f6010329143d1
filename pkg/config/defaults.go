package config

const (
	defaultDataDir        = "~/.local/share/f1livetiming"
	defaultBaseURL        = "https://api.openf1.org/v1"
	defaultServerAddress  = "127.0.0.1:8080"
	defaultDatabaseName   = "settings.db"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
	defaultLapWindow      = 10
	defaultStintWindow    = 5
	defaultMaxAttempts    = 3
	defaultQueueSize      = 256
	defaultDurationMinute = 180
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DataDir: defaultDataDir,
		Provider: Provider{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: 10,
		},
		Session: Session{
			DefaultDurationMinutes: defaultDurationMinute,
			LookaheadHours:         24,
			LocateIntervalSeconds:  30,
		},
		Feed: Feed{
			MaxAttempts:           defaultMaxAttempts,
			ReconnectDelaySeconds: 5,
			ReceiveTimeoutSeconds: 30,
			PollIntervalSeconds:   4,
			QueueSize:             defaultQueueSize,
			FallbackToPolling:     true,
		},
		Store: Store{
			LapWindow:   defaultLapWindow,
			StintWindow: defaultStintWindow,
		},
		Server: Server{
			Enabled:                  true,
			Address:                  defaultServerAddress,
			BroadcastIntervalSeconds: 5,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
