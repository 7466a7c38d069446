package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init configures the shared logger. Call once at startup.
func Init(level string) {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// GetLogger returns the shared logger, initializing with defaults if needed.
func GetLogger() *logrus.Logger {
	if log == nil {
		Init("info")
	}
	return log
}
