// Package logging configures the zerolog.Logger every component of the
// publish engine is constructed with.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the base logger for service, stamped with its version. Output
// format and level are controlled separately via Configure once the
// configuration layer has loaded (main cannot know the desired level before
// config.Load runs).
func New(service, version string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
	return logger
}

// Configure re-levels and re-formats logger per the resolved configuration.
// format "console" or "pretty" yields a human-readable writer; anything else
// (including "" and "json") keeps structured JSON output.
func Configure(logger zerolog.Logger, level, format string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	if format == "console" || format == "pretty" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return logger.Output(output)
	}
	return logger
}

// WithComponent tags logger with the component field every package in this
// module uses to identify its log lines.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
