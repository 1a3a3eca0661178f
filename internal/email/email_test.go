package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/buildquick-qualify/internal/email"
	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

var testAddr = email.Addresses{
	From: "Antonio Launch <info@codewithtoni.com>",
	To:   "leads@example.com",
}

func submission() qualify.Submission {
	return qualify.Submission{
		Name:               "Jane Doe",
		Email:              "jane@example.com",
		ProjectDescription: "Need an MVP",
		Timeline:           "ASAP",
		ServiceInterest:    qualify.ServiceInterest{MVPDevelopment: true, SalesFunnel: true},
		HeardFrom:          "Google",
	}
}

// ─── Compose ──────────────────────────────────────────────────────────────────

func TestCompose_EnvelopeAndSubject(t *testing.T) {
	msg := email.Compose(testAddr, submission(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, testAddr.From, msg.From)
	assert.Equal(t, testAddr.To, msg.To)
	assert.Equal(t, "jane@example.com", msg.ReplyTo)
	assert.Equal(t, "New Qualification Form: Jane Doe - MVP Development, Sales Funnel Design", msg.Subject)
}

func TestCompose_BodyContainsFields(t *testing.T) {
	msg := email.Compose(testAddr, submission(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"Jane Doe",
		`href="mailto:jane@example.com"`,
		"Need an MVP",
		"ASAP",
		"MVP Development, Sales Funnel Design",
		"Google",
		"Reply to Jane Doe",
		"© 2026 BuildQuick",
	} {
		assert.Contains(t, msg.HTML, want)
	}
	assert.NotContains(t, msg.HTML, "Additional Comments:")
	assert.NotContains(t, msg.HTML, "%!")
}

func TestCompose_AdditionalCommentsBlockOnlyWhenPresent(t *testing.T) {
	s := submission()
	s.AdditionalComments = "Call me after 5pm"
	msg := email.Compose(testAddr, s, time.Now())

	assert.Contains(t, msg.HTML, "Additional Comments:")
	assert.Contains(t, msg.HTML, "Call me after 5pm")
}

func TestCompose_SubmittedMarkupIsNeutralised(t *testing.T) {
	s := submission()
	s.Name = `<script>alert(1)</script>Mallory`
	s.ProjectDescription = `<img src=x onerror=alert(1)>build & ship`
	msg := email.Compose(testAddr, s, time.Now())

	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "onerror")
	assert.Contains(t, msg.HTML, "Mallory")
	assert.Contains(t, msg.HTML, "build &amp; ship")
}

// ─── Resend ───────────────────────────────────────────────────────────────────

func TestResend_SendsOneRequest(t *testing.T) {
	var (
		calls int
		body  map[string]any
		auth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth = r.Header.Get("Authorization")
		assert.True(t, strings.HasSuffix(r.URL.Path, "/emails"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	sender := email.NewResendClient("re_key", testAddr, email.WithResendBaseURL(srv.URL+"/"))
	res, err := sender.SendQualification(context.Background(), submission())
	require.NoError(t, err)

	assert.Equal(t, "re_123", res.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Bearer re_key", auth)
	assert.Equal(t, testAddr.From, body["from"])
	assert.Equal(t, []any{testAddr.To}, body["to"])
	assert.Equal(t, "jane@example.com", body["reply_to"])
	assert.Contains(t, body["subject"], "Jane Doe")
}

func TestResend_APIErrorWrapsSendFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"statusCode":401,"name":"missing_api_key","message":"Missing API key"}`))
	}))
	defer srv.Close()

	sender := email.NewResendClient("", testAddr, email.WithResendBaseURL(srv.URL+"/"))
	_, err := sender.SendQualification(context.Background(), submission())
	require.Error(t, err)
	assert.ErrorIs(t, err, email.ErrSendFailed)
}

// ─── Postmark ─────────────────────────────────────────────────────────────────

func TestPostmark_SendsOneRequest(t *testing.T) {
	var (
		calls int
		body  map[string]any
		token string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		token = r.Header.Get("X-Postmark-Server-Token")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"To":"leads@example.com","MessageID":"pm-1","ErrorCode":0,"Message":"OK"}`))
	}))
	defer srv.Close()

	sender := email.NewPostmarkClient("pm_server", "", testAddr, email.WithPostmarkBaseURL(srv.URL))
	res, err := sender.SendQualification(context.Background(), submission())
	require.NoError(t, err)

	assert.Equal(t, "pm-1", res.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "pm_server", token)
	assert.Equal(t, "jane@example.com", body["ReplyTo"])
	assert.Equal(t, testAddr.To, body["To"])
}

func TestPostmark_ErrorCodeIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
	}))
	defer srv.Close()

	sender := email.NewPostmarkClient("pm_server", "", testAddr, email.WithPostmarkBaseURL(srv.URL))
	_, err := sender.SendQualification(context.Background(), submission())
	require.Error(t, err)
	assert.ErrorIs(t, err, email.ErrSendFailed)
}
