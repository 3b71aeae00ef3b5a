// Package logging builds the structured logger used by the import commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// New returns a tint-formatted logger writing to w. Debug output is enabled
// when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   logLevel,
		NoColor: !isTerminal(w),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			return a
		},
	}))
}

// WithRun tags every record with a fresh run id so one import's lines can be
// picked out of a shared log.
func WithRun(l *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return l.With("run_id", id), id
}

// Discard is a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Since is a small helper for duration attributes.
func Since(start time.Time) slog.Attr {
	return slog.Duration("duration", time.Since(start).Round(time.Millisecond))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
