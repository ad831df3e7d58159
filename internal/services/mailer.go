package services

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Mailer sends an HTML message and returns the message id it was sent under.
type Mailer interface {
	Send(subject, html string) (string, error)
}

// SMTPMailer delivers mail through a single SMTP account. The recipient is
// fixed: every reminder lands in the clinic's inbox.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	recipient string
}

func NewSMTPMailer(host string, port int, user, password, recipient string) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, user, password),
		from:      user,
		recipient: recipient,
	}
}

func (m *SMTPMailer) Send(subject, html string) (string, error) {
	messageID := fmt.Sprintf("<%s@dentaheal>", uuid.NewString())

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.recipient)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", messageID)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return "", err
	}
	return messageID, nil
}
