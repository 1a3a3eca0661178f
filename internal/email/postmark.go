package email

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

// postmarkClient is the Sender backed by Postmark's transactional API.
type postmarkClient struct {
	client *postmark.Client
	addr   Addresses
	now    func() time.Time
}

// PostmarkOption customises the Postmark sender.
type PostmarkOption func(*postmarkClient)

// WithPostmarkBaseURL points the client at another API root.
func WithPostmarkBaseURL(baseURL string) PostmarkOption {
	return func(c *postmarkClient) {
		c.client.BaseURL = baseURL
	}
}

// NewPostmarkClient returns a Sender that delivers email via Postmark.
// Only the server token is used for sending; the account token may be empty.
func NewPostmarkClient(serverToken, accountToken string, addr Addresses, opts ...PostmarkOption) Sender {
	c := &postmarkClient{
		client: postmark.NewClient(serverToken, accountToken),
		addr:   addr,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendQualification renders the notification and makes a single send call.
// Postmark can answer 200 with a non-zero ErrorCode; that is a failure too.
func (c *postmarkClient) SendQualification(ctx context.Context, s qualify.Submission) (Result, error) {
	msg := Compose(c.addr, s, c.now())

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:     msg.From,
		To:       msg.To,
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		HTMLBody: msg.HTML,
		Tag:      "qualification",
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: postmark: %w", ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return Result{}, fmt.Errorf("%w: postmark error %d: %s", ErrSendFailed, resp.ErrorCode, resp.Message)
	}

	return Result{ID: resp.MessageID}, nil
}
