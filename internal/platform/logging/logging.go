// Package logging builds the zerolog logger shared by the binary.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a JSON logger writing to out, or a console writer in development.
func New(out io.Writer, level string, development bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if out == nil {
		out = os.Stdout
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	if development {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}

	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logger = logger.Level(lvl)
	}
	log.Logger = logger
	return logger
}

// Component derives a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
