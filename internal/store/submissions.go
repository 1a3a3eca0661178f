package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// Status is the outcome of the dispatch attempt recorded with a submission.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// RecordParams is one archived submission plus what happened when it was
// handed to the email provider.
type RecordParams struct {
	Submission qualify.Submission
	Status     Status
	Provider   string // "resend" | "postmark"

	// MessageID and ProviderResult are set when Status is StatusSent.
	MessageID      string
	ProviderResult json.RawMessage

	// ErrorMessage is set when Status is StatusFailed.
	ErrorMessage string

	RequestID string
	IPHash    string // never the raw client IP
}

// ─── METHODS ─────────────────────────────────────────────────────────────────

const insertSubmission = `
INSERT INTO qualification_submissions (
    id, name, email, project_description, timeline, heard_from, additional_comments,
    mvp_development, landing_page, sales_funnel, other,
    status, provider, message_id, provider_result, error_message, request_id, ip_hash
) VALUES (
    $1, $2, $3, $4, $5, $6, $7,
    $8, $9, $10, $11,
    $12, $13, $14, $15, $16, $17, $18
)`

// RecordSubmission inserts one archive row and returns its id. Every call
// inserts a new row; identical payloads are not deduplicated.
func (s *Store) RecordSubmission(ctx context.Context, p RecordParams) (uuid.UUID, error) {
	id := uuid.New()
	sub := p.Submission

	_, err := s.pool.ExecContext(ctx, insertSubmission,
		id,
		sub.Name,
		sub.Email,
		sub.ProjectDescription,
		sub.Timeline,
		sub.HeardFrom,
		nullString(sub.AdditionalComments),
		sub.ServiceInterest.MVPDevelopment,
		sub.ServiceInterest.LandingPage,
		sub.ServiceInterest.SalesFunnel,
		sub.ServiceInterest.Other,
		string(p.Status),
		p.Provider,
		nullString(p.MessageID),
		pqtype.NullRawMessage{
			RawMessage: p.ProviderResult,
			Valid:      len(p.ProviderResult) > 0,
		},
		nullString(p.ErrorMessage),
		nullString(p.RequestID),
		nullString(p.IPHash),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("RecordSubmission: %w", err)
	}
	return id, nil
}

// nullString converts a Go string to sql.NullString. Blank strings become
// NULL; anything else is stored exactly as given.
func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
