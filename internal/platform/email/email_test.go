package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"

	"pms/internal/platform/config"
)

func TestNewSelectsProvider(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"disabled", config.Config{EmailProvider: "smtp", SMTPHost: "mail"}, "noop"},
		{"smtp", config.Config{EmailEnabled: true, EmailProvider: "smtp", SMTPHost: "mail"}, "smtp"},
		{"smtp without host", config.Config{EmailEnabled: true, EmailProvider: "smtp"}, "noop"},
		{"resend", config.Config{EmailEnabled: true, EmailProvider: "resend", EmailAPIKey: "key"}, "resend"},
		{"noop", config.Config{EmailEnabled: true, EmailProvider: "noop"}, "noop"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			switch New(tc.cfg).(type) {
			case noopMailer:
				got = "noop"
			case *smtpMailer:
				got = "smtp"
			case *ResendMailer:
				got = "resend"
			}
			if got != tc.want {
				t.Fatalf("expected %s mailer, got %s", tc.want, got)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Hi\r\nBcc: x@example.com", "<!DOCTYPE html><p>hello</p>"))
	if !strings.Contains(msg, "Content-Type: text/html") {
		t.Fatalf("expected html content type, got %q", msg)
	}
	if strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("subject header injection not stripped: %q", msg)
	}
	plain := string(buildMessage("a", "b", "s", "plain body"))
	if !strings.Contains(plain, "Content-Type: text/plain") || !strings.HasSuffix(plain, "\r\n\r\nplain body") {
		t.Fatalf("unexpected plain message %q", plain)
	}
}

type recordingEmails struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (r *recordingEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	r.sent = append(r.sent, params)
	if r.err != nil {
		return nil, r.err
	}
	return &resend.SendEmailResponse{Id: "1"}, nil
}

func TestResendSend(t *testing.T) {
	emails := &recordingEmails{}
	m := &ResendMailer{Emails: emails}
	if err := m.Send(context.Background(), "from@example.com", "to@example.com", "Subject", "<html>hi</html>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(emails.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(emails.sent))
	}
	got := emails.sent[0]
	if got.Html != "<html>hi</html>" || got.Text != "" || got.To[0] != "to@example.com" || got.From != "from@example.com" {
		t.Fatalf("unexpected request %+v", got)
	}

	if err := m.Send(context.Background(), "from@example.com", "to@example.com", "Subject", "plain"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if plain := emails.sent[1]; plain.Text != "plain" || plain.Html != "" {
		t.Fatalf("expected a text body, got %+v", plain)
	}
}

func TestResendSendError(t *testing.T) {
	emails := &recordingEmails{err: errors.New("invalid from")}
	m := &ResendMailer{Emails: emails}
	err := m.Send(context.Background(), "bad", "to@example.com", "s", "text")
	if err == nil || !strings.Contains(err.Error(), "invalid from") {
		t.Fatalf("expected the provider error, got %v", err)
	}
	if err := m.Send(context.Background(), "a", " ", "s", "text"); err != nil {
		t.Fatalf("empty recipient should be skipped, got %v", err)
	}
	if len(emails.sent) != 1 {
		t.Fatalf("empty recipient must not reach the provider, got %d calls", len(emails.sent))
	}
}
