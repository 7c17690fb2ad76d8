package contact

import (
	"strings"
	"testing"
)

func TestRenderNotification(t *testing.T) {
	sub := Submission{
		Name:    "Jane",
		Email:   "jane@x.com",
		Message: "Line one\nLine <two> & more",
	}
	draft := Draft{Text: "Hi Jane, thanks for reaching out.", Generated: true}

	email, err := RenderNotification("site@portfolio.dev", "owner@portfolio.dev", "abc-123", sub, draft)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if email.Subject != "Portfolio Contact: Jane" {
		t.Errorf("subject: got %q", email.Subject)
	}
	if email.ReplyTo != "jane@x.com" {
		t.Errorf("reply-to: got %q", email.ReplyTo)
	}
	if email.From != "site@portfolio.dev" || email.To != "owner@portfolio.dev" {
		t.Errorf("addresses: got from=%q to=%q", email.From, email.To)
	}
	if !strings.Contains(email.HTML, "Line one<br>Line &lt;two&gt; &amp; more") {
		t.Errorf("message should be escaped with line breaks, got:\n%s", email.HTML)
	}
	if !strings.Contains(email.HTML, "Hi Jane, thanks for reaching out.") {
		t.Error("draft missing from html body")
	}
	if !strings.Contains(email.HTML, "border-left") {
		t.Error("draft should render in a distinct block")
	}
	if !strings.Contains(email.HTML, "Contact ID abc-123") || !strings.Contains(email.Text, "Contact ID abc-123") {
		t.Error("contact id footer missing")
	}
	if !strings.Contains(email.Text, "Line <two> & more") {
		t.Error("plain text body should carry the raw message")
	}
}

func TestRenderNotificationEscapesDraftAndOmitsEmptyID(t *testing.T) {
	sub := Submission{Name: "Mallory", Email: "m@x.com", Message: "<script>alert(1)</script>"}
	email, err := RenderNotification("a", "b", "", sub, Draft{Text: "<b>bold</b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(email.HTML, "<script>") || strings.Contains(email.HTML, "<b>bold") {
		t.Errorf("html must be escaped:\n%s", email.HTML)
	}
	if strings.Contains(email.HTML, "Contact ID") {
		t.Error("no id footer expected when id is empty")
	}
}

func TestSubjectFoldsLineBreaks(t *testing.T) {
	if got := Subject("Jane\r\nBcc: evil@x.com"); got != "Portfolio Contact: Jane Bcc: evil@x.com" {
		t.Fatalf("got %q", got)
	}
}
