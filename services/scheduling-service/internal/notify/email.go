package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier sends plain-text email via unauthenticated SMTP (Mailpit-compatible).
type SMTPNotifier struct {
	addr string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(host, port, from string) *SMTPNotifier {
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@techsched.local"
	}
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%s", strings.TrimSpace(host), strings.TrimSpace(port)),
		from: from,
		send: smtp.SendMail,
	}
}

func (s *SMTPNotifier) Notify(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.Recipient) == "" {
		return errors.New("email recipient missing")
	}
	subject := msg.Subject
	if subject == "" {
		subject = "Appointment reminder"
	}
	return s.send(s.addr, nil, s.from, []string{msg.Recipient}, []byte(buildMessage(s.from, msg.Recipient, subject, msg.Text)))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, to, subject, body,
	)
}
