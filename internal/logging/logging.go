// Package logging provides the shared structured logger used across the
// engine's subsystems.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

// SetLevel parses and applies a log level string (debug, info, warn, error);
// unrecognized values fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// For returns a component-scoped logger entry, e.g. logging.For("bm25").
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
