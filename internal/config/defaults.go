package config

const (
	defaultWatchDir              = "~/watched"
	defaultLogDir                = "~/.local/share/metasweep/logs"
	defaultPollInterval          = 60
	defaultSettleMillis          = 500
	defaultCleaningTimeout       = 120
	defaultExiftoolBinary        = "exiftool"
	defaultQpdfBinary            = "qpdf"
	defaultNotifyRequestTimeout  = 10
	defaultNotifyMaxSummaryChars = 500
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			LogDir:   defaultLogDir,
		},
		Watch: Watch{
			Mode:         ModeEvent,
			PollInterval: defaultPollInterval,
			Recursive:    true,
			SettleMillis: defaultSettleMillis,
		},
		Cleaning: Cleaning{
			ExiftoolBinary: defaultExiftoolBinary,
			QpdfBinary:     defaultQpdfBinary,
			Timeout:        defaultCleaningTimeout,
		},
		Notifications: Notifications{
			RequestTimeout:  defaultNotifyRequestTimeout,
			MaxSummaryChars: defaultNotifyMaxSummaryChars,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
