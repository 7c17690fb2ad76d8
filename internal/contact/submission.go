package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MinMessageLength is measured in runes after trimming.
const MinMessageLength = 10

const (
	ReasonRequiredFieldsMissing = "required fields missing"
	ReasonMessageTooShort       = "message too short"
)

// ErrMalformedBody is returned when the request body is not a JSON object
// or one of the known fields is not a string.
var ErrMalformedBody = errors.New("malformed request body")

// Submission is one contact-form entry. It is immutable once stored.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// StoredSubmission is a Submission as the row store saw it.
type StoredSubmission struct {
	ID         string
	ReceivedAt time.Time
	Submission
}

// ValidationError is a client error; Reason is safe to show the submitter.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ParseSubmission decodes a request body. Absent or null fields become "".
func ParseSubmission(body []byte) (Submission, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &raw); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if raw == nil {
		return Submission{}, fmt.Errorf("%w: body is not an object", ErrMalformedBody)
	}

	var sub Submission
	for key, dst := range map[string]*string{"name": &sub.Name, "email": &sub.Email, "message": &sub.Message} {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return Submission{}, fmt.Errorf("%w: field %q must be a string", ErrMalformedBody, key)
		}
	}
	return sub, nil
}

// Normalize trims surrounding whitespace from every field.
func (s Submission) Normalize() Submission {
	return Submission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Message: strings.TrimSpace(s.Message),
	}
}

// Validate expects a normalized submission.
func (s Submission) Validate() error {
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return &ValidationError{Reason: ReasonRequiredFieldsMissing}
	}
	if utf8.RuneCountInString(s.Message) < MinMessageLength {
		return &ValidationError{Reason: ReasonMessageTooShort}
	}
	return nil
}
