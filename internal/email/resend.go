package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

// resendClient is the Sender backed by the Resend API.
type resendClient struct {
	client *resend.Client
	addr   Addresses
	now    func() time.Time
}

// ResendOption customises the Resend sender.
type ResendOption func(*resendClient)

// WithResendBaseURL points the client at another API root. Tests use it to
// target an httptest server. The URL must end with a slash.
func WithResendBaseURL(raw string) ResendOption {
	return func(c *resendClient) {
		if u, err := url.Parse(raw); err == nil {
			c.client.BaseURL = u
		}
	}
}

// NewResendClient returns a Sender that delivers email via Resend. An empty
// apiKey is accepted; the API rejects the send and the error surfaces then.
func NewResendClient(apiKey string, addr Addresses, opts ...ResendOption) Sender {
	httpClient := &http.Client{
		Timeout: 15 * time.Second,
	}
	c := &resendClient{
		client: resend.NewCustomClient(httpClient, apiKey),
		addr:   addr,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendQualification renders the notification and makes a single send call.
func (c *resendClient) SendQualification(ctx context.Context, s qualify.Submission) (Result, error) {
	msg := Compose(c.addr, s, c.now())

	sent, err := c.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: resend: %w", ErrSendFailed, err)
	}

	return Result{ID: sent.Id}, nil
}
