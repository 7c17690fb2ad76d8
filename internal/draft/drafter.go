package draft

import (
	"context"
	"errors"
	"fmt"

	"portfolio-contact/internal/contact"
	"portfolio-contact/internal/logger"
)

// SpamMarker prefixes drafts for submissions the model considers spam.
const SpamMarker = "[Potential spam — review before sending]"

const SystemPrompt = `You are the site owner's professional email assistant for portfolio contact-form inquiries.
Write the complete email reply, not suggestions.

Guidelines:
- Tone: warm, concise, helpful.
- Include one concrete next step or question.
- If the message looks like spam, start the reply with "` + SpamMarker + `".
- Never invent facts, dates, times or commitments.
- No signature block.`

const (
	DefaultMaxTokens   = 400
	DefaultTemperature = 0.7
)

// Drafter turns a submission into a reply suggestion. Provider failures are
// reported as placeholder drafts, never as errors.
type Drafter struct {
	completer   Completer
	maxTokens   int
	temperature float64
	log         *logger.Logger
}

type Option func(*Drafter)

func WithMaxTokens(n int) Option {
	return func(d *Drafter) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(d *Drafter) {
		if t >= 0 && t <= 1 {
			d.temperature = t
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(d *Drafter) {
		if l != nil {
			d.log = l
		}
	}
}

func New(c Completer, opts ...Option) *Drafter {
	d := &Drafter{
		completer:   c,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "drafter")
	return d
}

// BuildUserPrompt interpolates the submission into the user turn.
func BuildUserPrompt(sub contact.Submission) string {
	return fmt.Sprintf(`Generate a direct, actionable email reply for this contact form submission.

Contact details:
- Name: %s
- Email: %s
- Message: %s

Write the complete email reply:`, sub.Name, sub.Email, sub.Message)
}

func (d *Drafter) Draft(ctx context.Context, sub contact.Submission) contact.Draft {
	if d.completer == nil {
		return contact.PlaceholderDraft(contact.DraftUnavailable)
	}

	text, err := d.completer.Complete(ctx, CompletionRequest{
		SystemPrompt: SystemPrompt,
		UserPrompt:   BuildUserPrompt(sub),
		MaxTokens:    d.maxTokens,
		Temperature:  d.temperature,
	})
	if err != nil {
		class := ErrorClass(err)
		d.log.Warn("reply draft failed", "collaborator", "ai", "error_class", class, "error", err)
		return contact.PlaceholderDraft(class)
	}
	return contact.Draft{Text: text, Generated: true}
}

// ErrorClass maps a completion error to one of the contact.Draft* classes.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return contact.DraftRateLimited
	case errors.Is(err, ErrAuth):
		return contact.DraftAuth
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return contact.DraftTimeout
	default:
		return contact.DraftError
	}
}
