package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps a level name to its LogLevel. Unknown names fall back to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN":
		return LogLevelWarn
	case "INFO":
		return LogLevelInfo
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	}
	return LogLevelInfo
}

// String returns the level name used in log prefixes
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	}
	return "INFO"
}

// Logger provides leveled logging with an optional component prefix
type Logger struct {
	level     LogLevel
	component string
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level := LogLevelInfo
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		level = ParseLogLevel(levelStr)
	}
	return &Logger{level: level}
}

// WithComponent returns a derived logger that prefixes messages with the component name
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{level: l.level, component: name}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LogLevelError, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf(LogLevelWarn, format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LogLevelInfo, format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LogLevelDebug, format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.printf(LogLevelTrace, format, args...)
}

func (l *Logger) printf(level LogLevel, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.component != "" {
		prefix += l.component + ": "
	}
	log.Printf(prefix+format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
