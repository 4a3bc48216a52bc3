package service

import (
	"context"
	"fmt"
	"log/slog"

	gomail "gopkg.in/gomail.v2"

	"github.com/sundialhq/sundial/pkg/slogx"
)

// EmailResult reports whether an invite email went out and, if not, why.
type EmailResult struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

const (
	ReasonSMTPNotConfigured = "smtp_not_configured"
	ReasonNoEmailProvided   = "no_email_provided"
)

// Mailer sends invitation emails over SMTP. With incomplete SMTP settings it
// degrades to a no-op that reports why nothing was sent, so invite creation
// never fails on mail problems.
type Mailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (m *Mailer) configured() bool {
	return m != nil && m.Host != "" && m.Port != 0 && m.User != "" && m.Pass != ""
}

// SendInviteEmail delivers the accept link to the invitee.
func (m *Mailer) SendInviteEmail(ctx context.Context, email, inviteLink, inviterName string) EmailResult {
	log := slogx.FromContext(ctx)

	if email == "" {
		return EmailResult{Sent: false, Reason: ReasonNoEmailProvided}
	}
	if !m.configured() {
		return EmailResult{Sent: false, Reason: ReasonSMTPNotConfigured}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", fmt.Sprintf("%s invited you to Sundial", inviterName))
	msg.SetBody("text/plain", fmt.Sprintf("You were invited to join Sundial. Accept here: %s", inviteLink))

	dialer := gomail.NewDialer(m.Host, m.Port, m.User, m.Pass)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Error("failed to send invite email", slog.Any("error", err))
		return EmailResult{Sent: false, Reason: "smtp_error"}
	}

	return EmailResult{Sent: true}
}
