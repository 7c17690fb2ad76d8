package contact

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Email is one outbound notification. Text is the plain rendering for
// transports that cannot carry HTML.
type Email struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one email and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

// Subject builds the notification subject. Line breaks in the name are
// folded so the header stays on one line.
func Subject(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return "Portfolio Contact: " + name
}

var notificationTmpl = template.Must(template.New("notification").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") },
}).Parse(`<div style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1a1a1a;">
<h2>New Portfolio Contact</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
<p><strong>Message:</strong></p>
<p>{{range $i, $l := lines .Message}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
<hr>
<h3>Suggested reply</h3>
<div style="background: #f3f6fb; border-left: 4px solid #3b6fd8; padding: 12px 16px; white-space: pre-wrap;">{{.Draft}}</div>
{{if .ID}}<p style="color: #777;"><small>Contact ID {{.ID}}</small></p>{{end}}
</div>
`))

type notificationView struct {
	Submission
	ID    string
	Draft string
}

// RenderNotification builds the owner notification for one submission.
// id may be empty when the row store was unavailable.
func RenderNotification(from, to, id string, sub Submission, draft Draft) (Email, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, notificationView{Submission: sub, ID: id, Draft: draft.Text}); err != nil {
		return Email{}, fmt.Errorf("render notification: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "New Portfolio Contact\n\nName: %s\nEmail: %s\n\nMessage:\n%s\n\n", sub.Name, sub.Email, sub.Message)
	fmt.Fprintf(&text, "Suggested reply:\n%s\n", draft.Text)
	if id != "" {
		fmt.Fprintf(&text, "\nContact ID %s\n", id)
	}

	return Email{
		From:    from,
		To:      to,
		ReplyTo: sub.Email,
		Subject: Subject(sub.Name),
		HTML:    buf.String(),
		Text:    text.String(),
	}, nil
}
