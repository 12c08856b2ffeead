package worker

import (
	"context"
	"fmt"
	"time"

	"couture-commerce/config"

	"github.com/go-resty/resty/v2"
)

// Mailer sends transactional mail through the HTTP relay. Delivery is best
// effort; callers decide what a failure means.
type Mailer struct {
	http *resty.Client
	from string
}

// NewMailer creates a mail relay client
func NewMailer(cfg config.MailConfig) *Mailer {
	httpClient := resty.New().
		SetBaseURL(cfg.RelayURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(1)

	return &Mailer{http: httpClient, from: cfg.From}
}

type mailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send posts one message to the relay
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(mailRequest{From: m.from, To: to, Subject: subject, Body: body}).
		Post("")
	if err != nil {
		return fmt.Errorf("mail relay unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay rejected message: status=%d", resp.StatusCode())
	}
	return nil
}
