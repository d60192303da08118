package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ContactFormData represents the data structure coming from the site's contact form
type ContactFormData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`

	// Anti-abuse fields, never stored.
	CaptchaToken string        `json:"hcaptchaToken"`
	Honeypot     string        `json:"honeypot"`
	Timestamp    FormTimestamp `json:"timestamp"`
}

// UnmarshalJSON accepts the provider specific token field names as well.
func (f *ContactFormData) UnmarshalJSON(data []byte) error {
	type plain ContactFormData
	var aux struct {
		plain
		GenericToken   string `json:"captchaToken"`
		TurnstileToken string `json:"cf-turnstile-response"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = ContactFormData(aux.plain)
	if f.CaptchaToken == "" {
		f.CaptchaToken = aux.GenericToken
	}
	if f.CaptchaToken == "" {
		f.CaptchaToken = aux.TurnstileToken
	}

	return nil
}

// Input returns the storable part of the submission.
func (f ContactFormData) Input() ContactInput {
	return ContactInput{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		Subject:   strings.TrimSpace(f.Subject),
		Message:   strings.TrimSpace(f.Message),
	}
}

// FormTimestamp is the form load time in milliseconds since the epoch. The form
// sends it as a number, some clients as a string; zero means absent.
type FormTimestamp int64

func (t *FormTimestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*t = 0
		return nil
	}
	// Unparseable values are treated as absent rather than failing the request.
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*t = 0
		return nil
	}
	*t = FormTimestamp(ms)

	return nil
}

// Time converts the timestamp; ok is false when it was absent.
func (t FormTimestamp) Time() (time.Time, bool) {
	if t <= 0 {
		return time.Time{}, false
	}

	return time.UnixMilli(int64(t)), true
}

// ContactInput is the trimmed, storable part of a submission.
type ContactInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,contactemail"`
	Subject   string `json:"subject" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// Contact is a stored submission from the contact form.
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewContact stamps an input with its identifier and creation time.
func NewContact(id string, in ContactInput, createdAt time.Time) Contact {
	return Contact{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: createdAt,
	}
}

func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Initials returns the upper-cased first letters of both names.
func (c Contact) Initials() string {
	var b strings.Builder
	for _, name := range []string{c.FirstName, c.LastName} {
		for _, r := range name {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}

	return b.String()
}
