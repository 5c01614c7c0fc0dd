package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Veraticus/sentinel/internal/model"
)

// ForwardBodyLimit bounds the cleaned message body embedded in a forward.
const ForwardBodyLimit = 2000

// ForwardSubjectPrefix and ManualForwardPrefix tag outgoing subjects.
const (
	ForwardSubjectPrefix = "Receipt: "
	ManualForwardPrefix  = "[Manual Forward] "
	ConfirmationSubject  = "SentinelShare Command Confirmed"
)

// ForwardView is the data rendered into a forward body.
type ForwardView struct {
	ReceivedAt  time.Time
	Amount      *float64
	From        string
	Subject     string
	Category    model.Category
	Body        string
	Note        string
	Suggestions []string
}

var forwardTemplate = template.Must(template.New("forward").Funcs(template.FuncMap{
	"amount": func(v *float64) string { return fmt.Sprintf("$%.2f", *v) },
	"date":   func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
}).Parse(`<html><body style="font-family: sans-serif;">
<p><strong>From:</strong> {{.From}}<br>
<strong>Subject:</strong> {{.Subject}}<br>
<strong>Received:</strong> {{date .ReceivedAt}}
{{- if .Category}}<br>
<strong>Category:</strong> {{.Category}}{{end}}
{{- if .Amount}}<br>
<strong>Amount:</strong> {{amount .Amount}}{{end}}</p>
{{- if .Note}}
<p><em>{{.Note}}</em></p>
{{- end}}
<pre style="white-space: pre-wrap;">{{.Body}}</pre>
{{- if .Suggestions}}
<hr>
<p>Reply to this email to change what gets forwarded:</p>
<ul>{{range .Suggestions}}<li><code>{{.}}</code></li>{{end}}<li><code>HELP</code></li></ul>
{{- end}}
</body></html>
`))

var messageTemplate = template.Must(template.New("message").Parse(
	`<html><body style="font-family: sans-serif;"><pre style="white-space: pre-wrap;">{{.}}</pre></body></html>
`))

// RenderForward builds the HTML body of a forwarded receipt.
func RenderForward(view ForwardView) (string, error) {
	view.Body = Truncate(CleanContent(view.Body), ForwardBodyLimit)
	var buf bytes.Buffer
	if err := forwardTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering forward body: %w", err)
	}
	return buf.String(), nil
}

// RenderText wraps plain text in a minimal HTML document.
func RenderText(text string) (string, error) {
	var buf bytes.Buffer
	if err := messageTemplate.Execute(&buf, strings.TrimSpace(text)); err != nil {
		return "", fmt.Errorf("rendering message body: %w", err)
	}
	return buf.String(), nil
}
