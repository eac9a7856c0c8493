// Package obs provides the adapter core's logging setup. Logging uses Go's
// stdlib log/slog exclusively, mirroring the teacher's convention: all
// output goes to stderr so stdout stays free for any host-side canonical
// JSON emission.
package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the global slog default logger with the given level and
// format ("json" or anything else for text). Safe to call more than once.
func Setup(level slog.Level, format string) {
	SetupWithWriter(level, format, os.Stderr)
}

// SetupWithWriter is Setup with an explicit writer, primarily for tests that
// capture log output in a buffer instead of stderr.
func SetupWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLevel determines the slog.Level from verbose/quiet flags, with
// ADAPTCORE_DEBUG=1 taking highest priority, matching the teacher's
// precedence order.
func ResolveLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("ADAPTCORE_DEBUG") == "1" {
		return slog.LevelDebug
	}
	if verbose {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveFormat reads ADAPTCORE_LOG_FORMAT and returns "json" or "text".
func ResolveFormat() string {
	if strings.EqualFold(os.Getenv("ADAPTCORE_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns a child logger tagged with a "component" attribute, for
// scoping log lines to one package. The packages in this repo log
// through the default slog logger instead.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
