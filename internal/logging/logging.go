// Package logging builds the process-wide logrus logger from configuration.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger writing to stdout at the given level. Unknown
// levels fall back to info and are reported once.
func New(level, component string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	entry := l.WithField("component", component)
	if err != nil {
		entry.WithField("level", level).Warn("unknown log level, using info")
	}
	return entry
}
