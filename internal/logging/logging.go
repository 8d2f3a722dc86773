// Package logging builds the process logger.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/internal/config"
)

type ctxKey struct{}

// New returns a logrus logger configured from cfg. Dev mode defaults to the
// text formatter, otherwise JSON.
func New(cfg config.LogConfig, dev bool) *logrus.Logger {
	return newLogger(cfg, dev, os.Stderr)
}

func newLogger(cfg config.LogConfig, dev bool, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	format := cfg.Format
	if format == "" {
		format = "json"
		if dev {
			format = "text"
		}
	}
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// WithLogger stores a request-scoped entry in ctx.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the request-scoped entry, or one on the standard
// logger when none was stored.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
