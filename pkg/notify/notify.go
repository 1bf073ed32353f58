// Package notify delivers one-time codes to users. Delivery is best
// effort: a failed send is logged with the code so an operator can relay
// it manually, and the login flow carries on.
package notify

import (
	"fmt"
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends a one-time code to an address.
type Mailer interface {
	SendOTP(to, username, code, purpose string) error
}

// SMTPMailer delivers codes over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer configures a mailer against the given SMTP server.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendOTP emails the code.
func (m *SMTPMailer) SendOTP(to, username, code, purpose string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subjectFor(purpose))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour verification code is: %s\n\nIt expires shortly. If you did not request this, ignore this message.\n",
		username, code,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail to %s: %w", to, err)
	}
	return nil
}

func subjectFor(purpose string) string {
	switch purpose {
	case "registration":
		return "Confirm your registration"
	default:
		return "Your login verification code"
	}
}

// LogMailer writes codes to the process log instead of sending mail.
// Used in development and as the fallback when SMTP is not configured.
type LogMailer struct{}

// SendOTP logs the code.
func (LogMailer) SendOTP(to, username, code, purpose string) error {
	log.Printf("notify: otp for %s (%s, %s): %s", username, to, purpose, code)
	return nil
}
