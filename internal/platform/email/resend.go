package email

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// resendEmails is the slice of the Resend client the mailer uses.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendMailer struct {
	Emails resendEmails
}

func NewResend(apiKey string) *ResendMailer {
	client := resend.NewCustomClient(&http.Client{Timeout: 10 * time.Second}, apiKey)
	return &ResendMailer{Emails: client.Emails}
}

func (m *ResendMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	params := &resend.SendEmailRequest{From: from, To: []string{to}, Subject: subject}
	if isHTML(body) {
		params.Html = body
	} else {
		params.Text = body
	}
	if _, err := m.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
