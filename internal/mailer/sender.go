// Package mailer provides outbound notification delivery for the identity
// flows. Delivery is best-effort: the orchestrator logs failures and never
// rolls back a state transition because a message did not go out.
package mailer

import (
	"context"

	"github.com/dmarenkov/screenid/internal/logging"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is the
// default when no SMTP host is configured, which keeps local development and
// tests free of a mail dependency.
type LogSender struct {
	logger logging.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mailer")}
}

// Send logs the message headers. The body is omitted so one-time codes do not
// end up in log storage.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "outbound mail suppressed (no SMTP host configured)",
		"from", msg.From, "to", msg.To, "subject", msg.Subject)
	return nil
}
