package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogSender writes messages to the log. Used when no relay is configured.
type LogSender struct {
	log *log.Entry
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{log: logger.WithField("component", "notify")}
}

func (s *LogSender) Channel() string { return "log" }

func (s *LogSender) Accepts(msg Message) bool { return msg.To != "" }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}
