// Package logger wires the adapter's logging up to the Host's fd 3 log
// sink, using the legacy (timezone-less) timestamp format the Host expects.
package logger

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

type loggerKey struct{}

// LegacyTimestampFormat is the bug-for-bug-stable format the Host has always
// been given: no timezone, matching the historical behavior of the adapter
// this module's wire contract was distilled from.
const LegacyTimestampFormat = "2006-01-02 15:04:05"

// RFC3339TimestampFormat is offered as an alternative for deployments that
// don't need legacy compatibility; it is never selected by default.
const RFC3339TimestampFormat = "2006-01-02T15:04:05Z07:00"

// L is the package-level default logger, reset by Init.
var L = logrus.NewEntry(logrus.StandardLogger())

// Init configures the default logger to write to out (normally the Host's
// fd 3), at the given level, formatted "<timestamp> [<level>] <msg>\n" using
// timestampFormat. It returns the configured *logrus.Logger.
func Init(out io.Writer, level logrus.Level, timestampFormat string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&easy.Formatter{
		TimestampFormat: timestampFormat,
		LogFormat:       "%time% [%lvl%] %msg%\n",
	})
	L = logrus.NewEntry(l)
	return l
}

// WithContext returns a new context carrying the provided logger. Use in
// combination with logger.WithField(s) for great effect.
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// FromContext retrieves the current logger from the context. If no logger
// is available, the default logger is returned.
func FromContext(ctx context.Context) *logrus.Entry {
	v := ctx.Value(loggerKey{})
	if v == nil {
		return L
	}
	return v.(*logrus.Entry)
}
