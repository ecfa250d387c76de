// Package buildlog is the compiler's structured logger.
package buildlog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const appName = "tsout"

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, zerolog.WarnLevel)
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	return zerolog.New(out).Level(level).With().Timestamp().Str("app", appName).Logger()
}

// Configure redirects log output to w at the named level ("debug", "info",
// "warn", "error"). Unknown levels fall back to warn.
func Configure(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, lvl)
}

func Info(message string, metadata map[string]any) {
	log(zerolog.InfoLevel, message, metadata)
}

func Debug(message string, metadata map[string]any) {
	log(zerolog.DebugLevel, message, metadata)
}

func Warn(message string, metadata map[string]any) {
	log(zerolog.WarnLevel, message, metadata)
}

func Error(message string, metadata map[string]any) {
	log(zerolog.ErrorLevel, message, metadata)
}

func log(level zerolog.Level, message string, metadata map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithLevel(level).Fields(metadata).Msg(message)
}
