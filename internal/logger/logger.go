package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatLogfmt  = "logfmt"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger. The first call (or Configure) decides
// level and format; later calls return the same instance.
func Get(level string) *Logger {
	return Configure(level, FormatConsole)
}

// Configure initialises the singleton with an explicit format. It is a no-op
// once the logger exists.
func Configure(level, format string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, format)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return newNopLogger()
}
