// Package main is the entry point of the Q&A forum backend.
package main

import (
	"context"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
)

func main() {
	setupLogging(nil)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// setupLogging configures the logrus formatter and level. A nil cfg keeps
// the text format at info level.
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	if cfg == nil {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		return
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		return
	}
	log.SetLevel(level)
}
