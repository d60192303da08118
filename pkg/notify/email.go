package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/navarrastar/portfolio/pkg/models"
)

//go:embed templates/contact_email.html
var emailTemplateText string

var emailTemplate = template.Must(template.New("contact_email").Parse(emailTemplateText))

// dateLayout renders like "Monday, January 2, 2006 at 03:04 PM UTC".
const dateLayout = "Monday, January 2, 2006 at 03:04 PM MST"

type emailView struct {
	Contact  models.Contact
	Subject  models.SubjectInfo
	Initials string
	Date     string
	ReplyURL template.URL
}

// EmailSubject is the subject line for notification emails.
func EmailSubject(c models.Contact) string {
	info, ok := models.LookupSubject(c.Subject)
	label := "New Message"
	if ok {
		label = info.Label
	}

	return fmt.Sprintf("✨ %s from %s", label, c.FullName())
}

// RenderEmailHTML renders the notification email. Visitor supplied fields
// are escaped by html/template.
func RenderEmailHTML(c models.Contact) (string, error) {
	info := models.Subject(c.Subject)
	replySubject := "Your inquiry"
	if known, ok := models.LookupSubject(c.Subject); ok {
		replySubject = known.Label
	}
	reply := url.URL{Scheme: "mailto", Opaque: c.Email, RawQuery: "subject=" + url.QueryEscape("Re: "+replySubject)}

	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, emailView{
		Contact:  c,
		Subject:  info,
		Initials: c.Initials(),
		Date:     c.CreatedAt.UTC().Format(dateLayout),
		ReplyURL: template.URL(reply.String()),
	})
	if err != nil {
		return "", fmt.Errorf("error rendering email: %w", err)
	}

	return buf.String(), nil
}

// EmailText is the plain text alternative body.
func EmailText(c models.Contact) string {
	return fmt.Sprintf(`New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, c.FullName(), c.Email, models.Subject(c.Subject).Label, c.Message)
}
