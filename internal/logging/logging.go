// Package logging provides structured logging configuration for the elevation
// client.
//
// Logging Strategy:
// - The client's stdout/stderr belong to the relayed terminal session, so
//   diagnostics must not be printed there during a session.
// - When the systemd journal is reachable, logs are sent to journald with
//   structured fields.
// - Otherwise a plain text handler writes to stderr; the default level is
//   "warn" so a healthy run stays silent.
//
// Usage:
//
//	logger := logging.SetupLogger("warn")
//	logger.Warn("action description", "key", value)
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// SetupLogger creates and configures a structured logger.
// The level parameter accepts: "debug", "info", "warn", "error"
// (case-insensitive). Invalid levels default to "warn".
//
// The logger is also set as the default via slog.SetDefault, allowing
// use of the global slog.Warn(), slog.Error(), etc. functions.
func SetupLogger(level string) *slog.Logger {
	slogLevel := parseLevel(level)

	var handler slog.Handler
	if journal.Enabled() {
		handler = &journalHandler{level: slogLevel}
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slogLevel,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts a string log level to slog.Level.
// Returns slog.LevelWarn for unrecognized values.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// WithComponent returns a logger with a pre-set component attribute.
// Useful for tagging all logs from a specific subsystem.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// journalHandler forwards slog records to the systemd journal, mapping
// levels to syslog priorities and attributes to journal fields.
type journalHandler struct {
	level slog.Leveler
	attrs []slog.Attr
}

func (h *journalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *journalHandler) Handle(_ context.Context, record slog.Record) error {
	vars := make(map[string]string, len(h.attrs)+record.NumAttrs()+1)
	vars["COMPONENT"] = "elevate"
	for _, attr := range h.attrs {
		vars[fieldName(attr.Key)] = attr.Value.String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		vars[fieldName(attr.Key)] = attr.Value.String()
		return true
	})
	return journal.Send(record.Message, priority(record.Level), vars)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &journalHandler{level: h.level, attrs: merged}
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	// Journal fields are flat and the client never logs groups.
	return h
}

// priority maps an slog level to a journald priority.
func priority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// fieldName converts an attribute key into a valid journal field name:
// uppercase, [A-Z0-9_] only, not starting with a digit.
func fieldName(key string) string {
	var b strings.Builder
	for i, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "FIELD"
	}
	return b.String()
}
