package logger

import (
	"github.com/sirupsen/logrus"
)

// New creates the application logger.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}
