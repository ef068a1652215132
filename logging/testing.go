package logging

// NewTestLogger returns a console logger at debug level, for use in tests.
func NewTestLogger() *Logger {
	return NewLoggerFromEnv("dev")
}
