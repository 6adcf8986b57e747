package infra

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the process logger: plain JSON in production so log
// shippers can parse it, the console writer everywhere else.
func NewLogger(env string, out io.Writer) zerolog.Logger {
	if env == "production" {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(console).With().Timestamp().Logger()
}
