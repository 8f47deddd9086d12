// Package mailer dispatches transactional email over SMTP.
package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Mailer dispatches transactional mail. Services take this interface so
// tests can swap in a capturing implementation.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP creates an SMTPMailer for the given relay.
func NewSMTP(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

const resetBody = `<p>You requested a password reset. Follow the link below to choose a new password. The link is valid for one hour.</p>
<p><a href="%s">%s</a></p>
<p>If you did not request a reset, you can ignore this email.</p>`

// SendPasswordReset emails the reset link to the given address.
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset")
	msg.SetBody("text/html", fmt.Sprintf(resetBody, resetURL, resetURL))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset mail to %s: %w", to, err)
	}
	return nil
}
