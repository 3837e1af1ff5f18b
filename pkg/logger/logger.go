package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger instance. Call Init once at startup; before
// that the logrus defaults apply (info level, text format).
var Log = logrus.New()

// Init configures the shared logger from the environment.
//
//	LOG_LEVEL  - trace|debug|info|warn|error (default info)
//	LOG_FORMAT - text|json (default text)
func Init() {
	Log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	}
}

// WithComponent returns an entry tagged with the originating component,
// so every subsystem logs under a stable field.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
