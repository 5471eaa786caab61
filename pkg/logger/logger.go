// Package logger builds the process logger: JSON events in production, a
// coloured console in development.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how New builds the logger.
type Options struct {
	// Level is a zerolog level name. Empty or unknown values mean info.
	Level  string
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer

	// Service and Version are attached to every event when set.
	Service string
	Version string
}

// New returns a logger carrying the service identity on every event. It does
// not touch zerolog's global level, so loggers built for tests stay independent.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(out).Level(Level(opts.Level)).With().Timestamp()
	if opts.Pretty {
		ctx = ctx.Caller()
	}
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	return ctx.Logger()
}

// Level maps a configured level name onto zerolog, defaulting to info.
func Level(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
