package config

type LogConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`

	// LogHandler is "json" or "default" (tinted text).
	LogHandler string `yaml:"logHandler"`
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
}
