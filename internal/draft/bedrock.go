package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// CompletionRequest is a single-turn prompt. No streaming, no conversation.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

var (
	ErrRateLimited     = errors.New("completion provider rate limited")
	ErrAuth            = errors.New("completion provider authentication failed")
	ErrTimeout         = errors.New("completion provider timed out")
	ErrEmptyCompletion = errors.New("completion provider returned no text")
)

// BedrockCompleter calls an Anthropic model hosted on Bedrock.
type BedrockCompleter struct {
	client  BedrockClient
	modelID string
}

func NewBedrockCompleter(client BedrockClient, modelID string) *BedrockCompleter {
	return &BedrockCompleter{client: client, modelID: strings.TrimSpace(modelID)}
}

func (b *BedrockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if b.modelID == "" {
		return "", fmt.Errorf("missing bedrock model id")
	}

	// Anthropic messages payload as accepted by Bedrock.
	payload := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        req.MaxTokens,
		"temperature":       req.Temperature,
		"system":            req.SystemPrompt,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": req.UserPrompt},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("bedrock payload: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", classify(fmt.Errorf("bedrock InvokeModel: %w", err))
	}

	var raw struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &raw); err != nil {
		return "", fmt.Errorf("bedrock response unmarshal: %w", err)
	}

	var text strings.Builder
	for _, c := range raw.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	s := strings.TrimSpace(text.String())
	if s == "" {
		return "", ErrEmptyCompletion
	}
	return s, nil
}

// classify tags provider errors with the package sentinels so callers can
// branch with errors.Is without knowing about Bedrock types.
func classify(err error) error {
	var throttled *brtypes.ThrottlingException
	var quota *brtypes.ServiceQuotaExceededException
	var denied *brtypes.AccessDeniedException
	var modelTimeout *brtypes.ModelTimeoutException
	switch {
	case errors.As(err, &throttled), errors.As(err, &quota):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case errors.As(err, &denied):
		return fmt.Errorf("%w: %w", ErrAuth, err)
	case errors.As(err, &modelTimeout):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException":
			return fmt.Errorf("%w: %w", ErrAuth, err)
		case "TooManyRequestsException":
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}
	return err
}
