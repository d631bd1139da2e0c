// Package logging builds the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var root = logrus.New()

// Setup configures the root logger. format is "json" or "text"; unknown
// levels fall back to info.
func Setup(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	root.SetOutput(out)

	switch strings.ToLower(format) {
	case "json":
		root.SetFormatter(new(logrus.JSONFormatter))
	default:
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	root.SetLevel(lvl)
	return root
}

// WithComponent returns an entry tagged with the given component name.
func WithComponent(component string) *logrus.Entry {
	return root.WithField("component", component)
}
