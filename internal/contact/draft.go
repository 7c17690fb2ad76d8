package contact

// Error classes for a reply draft that could not be generated.
const (
	DraftUnavailable = "unavailable"
	DraftRateLimited = "rate_limited"
	DraftAuth        = "auth"
	DraftTimeout     = "timeout"
	DraftError       = "error"
)

// Draft is the AI-suggested reply. It only lives for one request.
type Draft struct {
	Text       string
	Generated  bool
	ErrorClass string
}

var draftPlaceholders = map[string]string{
	DraftUnavailable: "[AI reply unavailable: no completion provider configured]",
	DraftRateLimited: "[AI reply unavailable: provider rate limit exceeded]",
	DraftAuth:        "[AI reply unavailable: provider authentication failed]",
	DraftTimeout:     "[AI reply unavailable: provider timed out]",
	DraftError:       "[AI reply unavailable: provider error]",
}

// PlaceholderDraft returns the stand-in used when no reply was generated.
// Unknown classes fall back to the generic provider error text.
func PlaceholderDraft(class string) Draft {
	text, ok := draftPlaceholders[class]
	if !ok {
		class = DraftError
		text = draftPlaceholders[DraftError]
	}
	return Draft{Text: text, ErrorClass: class}
}
