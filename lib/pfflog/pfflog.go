// Package pfflog threads a structured logger through a
// context.Context, the way teacher's lib/ packages thread dlib.dlog
// through theirs: call sites carry a context, not a *logrus.Logger,
// so a package deep in the core can log without importing logrus
// directly or being handed a logger at every call.
package pfflog

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// WithLogger attaches logger to ctx, replacing any logger already
// attached. Container.Open does this once, at the top, from
// pff.Options.Logger.
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logrus.NewEntry(logger))
}

// FromContext returns the entry attached to ctx, or a discarding
// entry if none was attached (so call sites never need a nil check).
func FromContext(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(discardLogger)
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}()

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// WithField returns ctx with a field appended to whatever entry is
// already attached (or to a discarding entry if none is).
func WithField(ctx context.Context, key string, value any) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).WithField(key, value))
}
