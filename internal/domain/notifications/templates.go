package notifications

import (
	"bytes"
	"html/template"
	"strings"
)

var emailTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <p>Hello {{.Name}},</p>
  <h2 style="font-size: 18px;">{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{- if .Link}}
  <p><a href="{{.Link}}" style="color: #2563eb;">View details</a></p>
  {{- end}}
  <p style="font-size: 12px; color: #6b7280;">You are receiving this email because of activity in the performance management system.</p>
</body>
</html>`))

// RenderEmail returns the subject and HTML body for a notification email.
func RenderEmail(n Notification, c Contact, frontendURL string) (string, string, error) {
	name := c.Name
	if name == "" {
		name = "there"
	}
	link := n.ActionURL
	if strings.HasPrefix(link, "/") && frontendURL != "" {
		link = strings.TrimRight(frontendURL, "/") + link
	}

	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Name    string
		Title   string
		Message string
		Link    string
	}{Name: name, Title: n.Title, Message: n.Message, Link: link})
	if err != nil {
		return "", "", err
	}

	subject := n.Title
	if n.Priority == PriorityUrgent || n.Priority == PriorityHigh {
		subject = "[" + strings.ToUpper(n.Priority[:1]) + n.Priority[1:] + "] " + subject
	}
	return subject, buf.String(), nil
}
