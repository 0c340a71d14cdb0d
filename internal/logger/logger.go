package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the application logger. An unparseable level falls back
// to info with a warning rather than failing the run. Production emits JSON
// for log shipping; development keeps colored text. The environment is read
// from WINCAST_APP_ENVIRONMENT, the same key the config loader binds.
func NewLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("WINCAST_APP_ENVIRONMENT") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}
