// Package logger builds the process-wide logrus logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout.  Production uses the JSON
// formatter so log shippers can parse fields; other environments get the
// human-readable text formatter.  An unknown level falls back to info.
func New(level string, production bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if production {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.WithField("level", level).Warn("invalid log level, using INFO")
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
