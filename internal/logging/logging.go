// Package logging provides the zerolog-based logger shared by the whole
// process. Initialize once at startup with Init; the package-level event
// starters are safe for concurrent use.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error. Default: info.
	Level string `koanf:"level"`

	// Format is json or console. Default: json.
	Format string `koanf:"format"`
}

var log = newLogger(Config{Level: "info", Format: "json"}, os.Stderr)

// Init replaces the global logger with one built from cfg.
func Init(cfg Config) {
	log = newLogger(cfg, os.Stderr)
}

// InitWriter is Init with an explicit output writer, for tests.
func InitWriter(cfg Config, w io.Writer) {
	log = newLogger(cfg, w)
}

func newLogger(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Logger returns the current global logger.
func Logger() zerolog.Logger { return log }

// Debug starts a debug-level event.
func Debug() *zerolog.Event { return log.Debug() }

// Info starts an info-level event.
func Info() *zerolog.Event { return log.Info() }

// Warn starts a warn-level event.
func Warn() *zerolog.Event { return log.Warn() }

// Error starts an error-level event.
func Error() *zerolog.Event { return log.Error() }

// Fatal starts a fatal-level event; terminating the process on Msg.
func Fatal() *zerolog.Event { return log.Fatal() }
