package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a zerolog logger tagged with the service name. Output
// is structured JSON unless LOG_PRETTY=true, in which case a console writer
// is used for local development.
func NewLogger(service string) *zerolog.Logger {
	var logger zerolog.Logger

	if os.Getenv("LOG_PRETTY") == "true" {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(writer)
	} else {
		logger = zerolog.New(os.Stderr)
	}

	logger = logger.With().
		Timestamp().
		Str("service", service).
		Logger()

	return &logger
}
