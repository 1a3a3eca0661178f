package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/nyashahama/buildquick-qualify/internal/qualify"
)

// Message is a provider-neutral, fully rendered email.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// strict strips every tag and escapes the remaining text, so submitted values
// are always rendered as plain text inside the template.
var strict = bluemonday.StrictPolicy()

// Compose renders the notification for s. now only supplies the footer year.
func Compose(addr Addresses, s qualify.Submission, now time.Time) Message {
	services := s.ServiceInterest.SelectedLabels()
	return Message{
		From:    addr.From,
		To:      addr.To,
		ReplyTo: s.Email,
		Subject: Subject(s),
		HTML:    qualificationHTML(s, services, now.Year()),
	}
}

// Subject returns the notification subject line.
func Subject(s qualify.Submission) string {
	return fmt.Sprintf("New Qualification Form: %s - %s", s.Name, s.ServiceInterest.SelectedLabels())
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

const (
	labelCell = `background-color: #f8fafc; padding: 12px 15px; font-weight: 600; color: #64748b; width: 140px; border-bottom: 1px solid #eaeaea;`
	valueCell = `padding: 12px 15px; color: #334155; border-bottom: 1px solid #eaeaea;`
)

func qualificationHTML(s qualify.Submission, services string, year int) string {
	name := strict.Sanitize(s.Name)
	addr := strict.Sanitize(s.Email)

	var rows strings.Builder
	detailRow(&rows, "Name", name)
	detailRow(&rows, "Email",
		fmt.Sprintf(`<a href="mailto:%s" style="color: #3b82f6; text-decoration: none;">%s</a>`, addr, addr))
	detailRow(&rows, "Timeline", strict.Sanitize(s.Timeline))
	detailRow(&rows, "Service Interest", strict.Sanitize(services))
	detailRow(&rows, "Heard From", strict.Sanitize(s.HeardFrom))

	comments := ""
	if s.AdditionalComments != "" {
		comments = textBlock("Additional Comments:", strict.Sanitize(s.AdditionalComments), 30)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Qualification Form Submission</title>
</head>
<body style="font-family: 'Helvetica Neue', Arial, sans-serif; background-color: #f9f9f7; margin: 0; padding: 0; color: #333;">
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" border="0" style="background-color: #f9f9f7;">
    <tr>
      <td align="center" style="padding: 30px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" border="0" style="background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); overflow: hidden;">
          <tr>
            <td style="background: linear-gradient(to right, #3b82f6, #0ea5e9); padding: 30px; text-align: center;">
              <h1 style="color: #ffffff; margin: 0; font-size: 24px; font-weight: 600;">New Qualification Form Submission</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 40px 30px;">
              <p style="margin-top: 0; font-size: 16px; line-height: 1.5; color: #555;">
                You have received a new qualification form submission for BuildQuick's unlimited web development service.
              </p>
              <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" border="0" style="margin: 30px 0; border: 1px solid #eaeaea; border-radius: 6px; overflow: hidden;">
%s              </table>
%s%s
              <div style="text-align: center; margin-top: 30px;">
                <a href="mailto:%s" style="display: inline-block; background-color: #3b82f6; color: #ffffff; text-decoration: none; padding: 12px 24px; border-radius: 4px; font-weight: 500; font-size: 16px;">Reply to %s</a>
              </div>
            </td>
          </tr>
          <tr>
            <td style="background-color: #f8fafc; padding: 20px 30px; text-align: center; font-size: 14px; color: #64748b; border-top: 1px solid #eaeaea;">
              <p style="margin: 0 0 10px 0;">© %d BuildQuick. All rights reserved.</p>
              <p style="margin: 0;">This is an automated message from your qualification form.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		rows.String(),
		textBlock("Project Description:", strict.Sanitize(s.ProjectDescription), 20),
		comments,
		addr, name,
		year,
	)
}

// detailRow appends one label/value row. value must already be safe HTML.
func detailRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, `                <tr>
                  <td style="%s">%s</td>
                  <td style="%s">%s</td>
                </tr>
`, labelCell, label, valueCell, value)
}

func textBlock(heading, body string, marginBottom int) string {
	return fmt.Sprintf(`              <div style="background-color: #f8fafc; border-radius: 6px; padding: 20px; margin-bottom: %dpx;">
                <h3 style="margin-top: 0; margin-bottom: 10px; color: #334155; font-size: 16px;">%s</h3>
                <p style="margin: 0; line-height: 1.6; color: #334155; white-space: pre-wrap;">%s</p>
              </div>
`, marginBottom, heading, body)
}
