package mailer

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
)

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
}

// NewSMTPSender constructs an SMTPSender for the given relay.
func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, password: password}
}

// Send dials the relay and delivers msg. Each call uses a fresh connection;
// the identity flows send at most one message per request, so connection
// reuse buys nothing here.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{mail.WithPort(s.port)}
	if s.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.user),
			mail.WithPassword(s.password),
		)
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	return nil
}
