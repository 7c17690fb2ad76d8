package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"portfolio-contact/internal/contact"
)

type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes the plain-text notification to a topic the owner is
// subscribed to. Reply-To cannot be carried over SNS, so the sender address
// is repeated in the body.
type SNSSender struct {
	client   SNSPublisher
	topicArn string
}

func NewSNSSender(client SNSPublisher, topicArn string) *SNSSender {
	return &SNSSender{client: client, topicArn: strings.TrimSpace(topicArn)}
}

func (s *SNSSender) Send(ctx context.Context, email contact.Email) (string, error) {
	if s.topicArn == "" {
		return "", fmt.Errorf("sns: missing topic arn")
	}
	body := email.Text
	if email.ReplyTo != "" {
		body = "Reply to: " + email.ReplyTo + "\n\n" + body
	}
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicArn),
		Subject:  aws.String(snsSubject(email.Subject)),
		Message:  aws.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("sns Publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// SNS subjects must be printable ASCII, at most 100 characters, and must not
// be empty.
func snsSubject(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= 100 {
			break
		}
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "Portfolio Contact"
	}
	return out
}
