// Package web serves the qualification form page and its static assets.
// Field labels, select options and the client-side error text all come from
// the qualify package, so the browser check and the server check share one
// definition.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

//go:embed templates/*.tmpl
var templates embed.FS

//go:embed assets
var assets embed.FS

// Messages shown by the browser when the server gives no better reason.
const (
	FallbackMessage = "Failed to submit form"
	NetworkMessage  = "Something went wrong. Please try again."
)

// PageData is everything the form template renders.
type PageData struct {
	Endpoint         string
	DefaultTimeline  string
	TimelineOptions  []string
	HeardFromOptions []string
	Services         []qualify.Service
	NoServiceMessage string
	FallbackMessage  string
	NetworkMessage   string
	ContactEmail     string
	Year             int
}

// Page renders the form. It is safe for concurrent use.
type Page struct {
	tmpl     *template.Template
	endpoint string
	contact  string
	now      func() time.Time
}

// NewPage parses the embedded template. endpoint is the submission URL the
// browser posts to; contact is the public address shown in the footer.
func NewPage(endpoint, contact string) (*Page, error) {
	tmpl, err := template.ParseFS(templates, "templates/form.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("web: parse template: %w", err)
	}
	return &Page{tmpl: tmpl, endpoint: endpoint, contact: contact, now: time.Now}, nil
}

// Data returns the values the template is executed with.
func (p *Page) Data() PageData {
	return PageData{
		Endpoint:         p.endpoint,
		DefaultTimeline:  qualify.DefaultTimeline,
		TimelineOptions:  qualify.TimelineOptions(),
		HeardFromOptions: qualify.HeardFromOptions(),
		Services:         qualify.Services(),
		NoServiceMessage: qualify.ErrNoServiceInterest.Error(),
		FallbackMessage:  FallbackMessage,
		NetworkMessage:   NetworkMessage,
		ContactEmail:     p.contact,
		Year:             p.now().Year(),
	}
}

// ServeHTTP renders into a buffer first so a template error never produces a
// half-written 200.
func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, p.Data()); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

// Assets serves form.js and form.css. Mount it under /assets/.
func Assets() http.Handler {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}
