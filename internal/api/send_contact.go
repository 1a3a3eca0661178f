package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/buildquick-qualify/internal/email"
	"github.com/nyashahama/buildquick-qualify/internal/qualify"
	"github.com/nyashahama/buildquick-qualify/internal/store"
)

// ─── POST /api/send-contact ───────────────────────────────────────────────────

const (
	msgSubmitted        = "Qualification form submitted successfully"
	msgProcessingFailed = "Failed to process qualification form"

	archiveTimeout = 5 * time.Second
)

type sendContactResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    email.Result `json:"data"`
}

// sendContactRequest is the wire shape of a submission. ServiceInterest is a
// pointer so an absent or null object is told apart from one with every flag
// false. At depth zero it shadows the embedded field with the same JSON name.
type sendContactRequest struct {
	qualify.Submission
	ServiceInterest *qualify.ServiceInterest `json:"serviceInterest"`
}

var (
	errNullBody              = errors.New("request body is null")
	errServiceInterestAbsent = errors.New("serviceInterest is absent or null")
)

// handleSendContact validates a qualification submission and dispatches the
// notification email. Exactly one send is attempted per valid request; there
// is no retry and no deduplication.
//
// Only the two validation failures are reported specifically. Everything
// else, including an unreadable body, a null body and a missing
// serviceInterest object, collapses into the generic 500 and the cause is
// logged, never returned.
func (s *Server) handleSendContact(w http.ResponseWriter, r *http.Request) {
	var req *sendContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondProcessingErr(w, r, fmt.Errorf("decode body: %w", err))
		return
	}
	if req == nil {
		s.respondProcessingErr(w, r, errNullBody)
		return
	}

	sub := req.Submission
	if req.ServiceInterest != nil {
		sub.ServiceInterest = *req.ServiceInterest
	}

	if err := qualify.Validate(sub); err != nil {
		switch {
		case errors.Is(err, qualify.ErrMissingRequiredFields):
			respondErr(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, qualify.ErrNoServiceInterest) && req.ServiceInterest == nil:
			s.respondProcessingErr(w, r, errServiceInterestAbsent)
		case errors.Is(err, qualify.ErrNoServiceInterest):
			respondErr(w, http.StatusBadRequest, err.Error())
		default:
			s.respondProcessingErr(w, r, fmt.Errorf("validate: %w", err))
		}
		return
	}

	result, sendErr := s.mailer.SendQualification(r.Context(), sub)
	s.archiveSubmission(r, sub, result, sendErr)

	if sendErr != nil {
		s.respondProcessingErr(w, r, sendErr)
		return
	}

	s.logger.Info("qualification submitted",
		"message_id", result.ID,
		"services", sub.ServiceInterest.SelectedLabels(),
		logField(r),
	)

	respond(w, http.StatusOK, sendContactResponse{
		Success: true,
		Message: msgSubmitted,
		Data:    result,
	})
}

// respondProcessingErr logs err and returns the generic 500 without leaking
// internal details.
func (s *Server) respondProcessingErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("error processing qualification form",
		"error", err,
		"path", r.URL.Path,
		logField(r),
	)
	respondErr(w, http.StatusInternalServerError, msgProcessingFailed)
}

// archiveSubmission writes the submission and its dispatch outcome to the
// lead archive in the background when one is configured. Failures are logged
// and never change the response. The insert outlives the request; Wait
// blocks until pending inserts finish.
func (s *Server) archiveSubmission(r *http.Request, sub qualify.Submission, result email.Result, sendErr error) {
	if s.archive == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	p := store.RecordParams{
		Submission: sub,
		Provider:   s.cfg.Provider,
		RequestID:  reqID,
		IPHash:     hashIP(clientIP(r)),
	}
	if sendErr != nil {
		p.Status = store.StatusFailed
		p.ErrorMessage = sendErr.Error()
	} else {
		p.Status = store.StatusSent
		p.MessageID = result.ID
		if raw, err := json.Marshal(result); err == nil {
			p.ProviderResult = raw
		}
	}

	base := context.WithoutCancel(r.Context())
	s.archiveWG.Add(1)
	go func() {
		defer s.archiveWG.Done()

		ctx, cancel := context.WithTimeout(base, archiveTimeout)
		defer cancel()

		id, err := s.archive.RecordSubmission(ctx, p)
		if err != nil {
			s.logger.Warn("lead archive write failed", "error", err, "request_id", reqID)
			return
		}
		s.logger.Debug("lead archived", "submission_id", id, "request_id", reqID)
	}()
}
