// Package qualify defines the qualification submission sent by the form and
// the rules that decide whether it is accepted. The form page and the HTTP
// endpoint both read their labels and messages from here, so the client-side
// check and the server-side check cannot drift apart.
package qualify

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─── ERRORS ───────────────────────────────────────────────────────────────────

// The error text is returned to the browser verbatim.
var (
	ErrMissingRequiredFields = errors.New("Missing required fields")
	ErrNoServiceInterest     = errors.New("Please select at least one service interest")
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// Submission is the flat record posted by the form. It has no identity and
// lives for exactly one request.
type Submission struct {
	Name               string          `json:"name" validate:"required"`
	Email              string          `json:"email" validate:"required"`
	ProjectDescription string          `json:"projectDescription" validate:"required"`
	Timeline           string          `json:"timeline" validate:"required"`
	ServiceInterest    ServiceInterest `json:"serviceInterest"`
	HeardFrom          string          `json:"heardFrom" validate:"required"`
	AdditionalComments string          `json:"additionalComments,omitempty"`
}

// ServiceInterest is the fixed set of offered services the submitter can tick.
type ServiceInterest struct {
	MVPDevelopment bool `json:"mvpDevelopment"`
	LandingPage    bool `json:"landingPage"`
	SalesFunnel    bool `json:"salesFunnel"`
	Other          bool `json:"other"`
}

// ─── VALIDATION ───────────────────────────────────────────────────────────────

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required-field presence first and the service interest
// second. A field is present when it is a non-empty string; whitespace counts.
func Validate(s Submission) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ErrMissingRequiredFields
		}
		return err
	}
	if !s.ServiceInterest.Any() {
		return ErrNoServiceInterest
	}
	return nil
}

// Any reports whether at least one service is selected.
func (si ServiceInterest) Any() bool {
	return si.MVPDevelopment || si.LandingPage || si.SalesFunnel || si.Other
}

// Selected returns the ticked services in catalogue order.
func (si ServiceInterest) Selected() []Service {
	flags := si.flags()
	out := make([]Service, 0, len(catalogue))
	for _, svc := range catalogue {
		if flags[svc.Key] {
			out = append(out, svc)
		}
	}
	return out
}

// SelectedLabels returns the display labels of the ticked services joined by
// ", " in catalogue order. Empty when nothing is ticked.
func (si ServiceInterest) SelectedLabels() string {
	selected := si.Selected()
	labels := make([]string, len(selected))
	for i, svc := range selected {
		labels[i] = svc.Label
	}
	return strings.Join(labels, ", ")
}

func (si ServiceInterest) flags() map[string]bool {
	return map[string]bool{
		KeyMVPDevelopment: si.MVPDevelopment,
		KeyLandingPage:    si.LandingPage,
		KeySalesFunnel:    si.SalesFunnel,
		KeyOther:          si.Other,
	}
}
