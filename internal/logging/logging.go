// Package logging wires up the structured logger shared by every service
// component.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ellvinib/lifeOS-sub004/internal/config"
)

// New builds a logger from configuration. Unknown levels fall back to
// info rather than failing startup.
func New(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Component returns an entry tagged with the originating component so
// log lines are filterable per subsystem.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
