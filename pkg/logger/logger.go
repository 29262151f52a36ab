package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a structured logger with RFC3339 timestamps.
func New(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}
