// Package email builds the qualification notification and delivers it through
// a transactional email provider (Resend or Postmark).
package email

import (
	"context"
	"errors"

	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

// ErrSendFailed wraps every delivery failure, whatever the provider.
var ErrSendFailed = errors.New("email: failed to send email")

// Result is what the provider reported for an accepted message. It is passed
// back to the browser as the data field of the success envelope.
type Result struct {
	ID string `json:"id"`
}

// Addresses are the operator-configured envelope addresses. The submitter
// never controls From or To; their address only becomes Reply-To.
type Addresses struct {
	From string // e.g. "Antonio Launch <info@codewithtoni.com>"
	To   string // inbox that receives qualification leads
}

// Sender is the interface the HTTP handler uses to dispatch a submission.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	// SendQualification sends exactly one notification email per call.
	// Errors match ErrSendFailed.
	SendQualification(ctx context.Context, s qualify.Submission) (Result, error)
}
