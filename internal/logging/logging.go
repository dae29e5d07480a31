// Package logging is the shared structured logger for the index engine,
// grounded on xmysql-server's logrus-based logger package.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package-wide logger. Components log through it rather than
// constructing their own, matching the teacher's single-logger-instance
// convention.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel parses level (e.g. "debug", "info", "warn") and applies it to
// the shared logger, falling back to Info on an unrecognized value.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("requested", level).Warn("unknown log level, defaulting to info")
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
