package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var base = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
		},
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetOutput redirects process logs, mainly for tests.
func SetOutput(out io.Writer) {
	base.SetOutput(out)
}

// SetLevel adjusts the minimum level; unknown names are ignored.
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		base.SetLevel(lvl)
	}
}

// Logger returns the process-wide base logger.
func Logger() *logrus.Logger {
	return base
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	base.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	base.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	base.WithFields(logrus.Fields(fields)).Error(msg)
}

type loggerKey struct{}

// WithLogger stores a request-scoped entry on the context.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// FromContext returns the request-scoped entry, or the base logger when none is set.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok && entry != nil {
			return entry
		}
	}
	return logrus.NewEntry(base)
}
