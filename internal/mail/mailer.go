// Package mail sends transactional email. The only message this application
// sends is the password-reset request.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/middleware"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer is the outbound mail capability.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SendGridMailer delivers mail through the SendGrid API.
type SendGridMailer struct {
	apiKey string
	sender string
}

// NewSendGridMailer returns a Mailer using the given API key and sender address.
func NewSendGridMailer(apiKey, sender string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey, sender: sender}
}

// Send delivers a plain-text message to a single recipient.
func (m *SendGridMailer) Send(ctx context.Context, recipient, subject, body string) error {
	from := sgmail.NewEmail("Inkwell", m.sender)
	to := sgmail.NewEmail("", recipient)
	message := sgmail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(m.apiKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("mail delivery failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail delivery failed: status %d", resp.StatusCode)
	}

	middleware.Logger.InfoContext(ctx, "mail sent",
		slog.String("recipient", recipient),
		slog.String("subject", subject),
	)
	return nil
}

// ResetEmailBody renders the password-reset message embedding the
// externally-resolvable confirmation URL.
func ResetEmailBody(baseURL, token string) string {
	return fmt.Sprintf(`To reset your password, visit the following link:
%s/reset-password/%s

If you did not make this request then simply ignore this email and no change will be made.`, baseURL, token)
}

// ResetEmailSubject is the subject line of the password-reset message.
const ResetEmailSubject = "Password Reset Request"
