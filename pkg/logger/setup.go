package logger

// SetupLogger initializes the default logger from CLI-level settings.
func SetupLogger(level string, json, source bool) {
	Init(&Config{
		Level:      LogLevel(level),
		JSON:       json,
		AddSource:  source,
		TimeFormat: "15:04:05",
	})
}
