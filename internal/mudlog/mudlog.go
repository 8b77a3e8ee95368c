package mudlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/natefinch/lumberjack"
)

var (
	logger   atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// SetupLogger replaces the process logger.
// If filePath is non empty, output is also written to a rotating log file.
func SetupLogger(level string, filePath string) {

	SetLevel(level)

	var out io.Writer = os.Stderr
	if filePath != `` {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	logger.Store(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel})))
}

// SetOutput is mostly useful for tests that want to inspect log lines.
func SetOutput(w io.Writer) {
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

func SetLevel(level string) {
	switch strings.ToLower(level) {
	case `debug`:
		logLevel.Set(slog.LevelDebug)
	case `warn`, `warning`:
		logLevel.Set(slog.LevelWarn)
	case `error`:
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
}

func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}
