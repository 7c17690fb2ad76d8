package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"

	"portfolio-contact/internal/contact"
)

// ResendEmails is the slice of the Resend client the sender needs.
type ResendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers the owner notification through the Resend API.
type ResendSender struct {
	emails ResendEmails
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{emails: resend.NewClient(strings.TrimSpace(apiKey)).Emails}
}

func NewResendSenderWithClient(emails ResendEmails) *ResendSender {
	return &ResendSender{emails: emails}
}

func (r *ResendSender) Send(ctx context.Context, email contact.Email) (string, error) {
	if strings.TrimSpace(email.To) == "" {
		return "", fmt.Errorf("resend: missing recipient")
	}
	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}
	resp, err := r.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend Send: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Id, nil
}
