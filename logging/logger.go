package logging

// Logging functionality for launcher-auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger levels
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger wraps a zerolog logger with the file it writes to
type Logger struct {
	logger   zerolog.Logger
	logFile  *os.File
	logLevel string
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// callerSkip jumps over emit and the exported helper.
const callerSkip = 2

// InitLogger initializes the global logger writing to a dated file under logs/
func InitLogger(logLevel string) error {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	logFileName := filepath.Join(logsDir, fmt.Sprintf("launcher-auth-%s.log", timestamp))

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	writers := []io.Writer{logFile}

	// Mirror to stdout only when LAUNCHER_AUTH_LOG_TO_STDOUT is explicitly enabled (opt-in)
	mirrorEnv := strings.TrimSpace(os.Getenv("LAUNCHER_AUTH_LOG_TO_STDOUT"))
	mirrorToStdout := mirrorEnv != "" && (strings.EqualFold(mirrorEnv, "1") || strings.EqualFold(mirrorEnv, "true") || strings.EqualFold(mirrorEnv, "yes"))
	if mirrorToStdout {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	install(zerolog.MultiLevelWriter(writers...), logFile, logLevel)

	Info("Logger initialized", "level", logLevel, "file", logFileName, "mirrorStdout", fmt.Sprintf("%t", mirrorToStdout))
	return nil
}

// InitWithWriter initializes the global logger on an arbitrary writer (used by tests and embedders)
func InitWithWriter(w io.Writer, logLevel string) {
	install(w, nil, logLevel)
}

func install(w io.Writer, logFile *os.File, logLevel string) {
	level := normalizeLevel(logLevel)
	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil && globalLogger.logFile != nil {
		_ = globalLogger.logFile.Close()
	}
	globalLogger = &Logger{
		logger:   zl,
		logFile:  logFile,
		logLevel: level,
	}
}

// Close closes the log file
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil && globalLogger.logFile != nil {
		err := globalLogger.logFile.Close()
		globalLogger.logFile = nil
		return err
	}
	return nil
}

// ParseLevel maps a user supplied level name to one of the Level constants, defaulting to INFO
func ParseLevel(v string) string {
	return normalizeLevel(v)
}

func normalizeLevel(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func zerologLevel(level string) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// emit writes one message with its key-value pairs; a trailing key without value is dropped
func emit(level zerolog.Level, message string, keyValues ...string) {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l == nil {
		return
	}

	ev := l.logger.WithLevel(level)
	if ev == nil {
		return
	}
	ev = ev.Caller(callerSkip)
	for i := 0; i < len(keyValues)-1; i += 2 {
		ev = ev.Str(keyValues[i], keyValues[i+1])
	}
	ev.Msg(message)
}

// Debug logs a debug message
func Debug(message string, keyValues ...string) {
	emit(zerolog.DebugLevel, message, keyValues...)
}

// Info logs an info message
func Info(message string, keyValues ...string) {
	emit(zerolog.InfoLevel, message, keyValues...)
}

// Warn logs a warning message
func Warn(message string, keyValues ...string) {
	emit(zerolog.WarnLevel, message, keyValues...)
}

// Error logs an error message
func Error(message string, keyValues ...string) {
	emit(zerolog.ErrorLevel, message, keyValues...)
}

// GetLogLevel returns the current log level
func GetLogLevel() string {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return LevelInfo
	}
	return globalLogger.logLevel
}
