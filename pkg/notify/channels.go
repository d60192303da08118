package notify

import (
	"context"
	"fmt"

	"github.com/navarrastar/portfolio/pkg/clients/airtable"
	"github.com/navarrastar/portfolio/pkg/clients/ntfy"
	"github.com/navarrastar/portfolio/pkg/clients/resend"
	"github.com/navarrastar/portfolio/pkg/clients/smtp"
	"github.com/navarrastar/portfolio/pkg/clients/twilio"
	"github.com/navarrastar/portfolio/pkg/models"
	"github.com/navarrastar/portfolio/pkg/utils"
)

// PushMessage builds the push notification for a contact.
func PushMessage(c models.Contact) ntfy.Message {
	info := models.Subject(c.Subject)

	return ntfy.Message{
		Title:    fmt.Sprintf("New %s from %s", info.Label, c.FirstName),
		Body:     fmt.Sprintf("From: %s\nEmail: %s\n\nMessage:\n%s", c.FullName(), c.Email, c.Message),
		Tags:     info.Tags,
		Priority: info.Priority,
		Click:    "mailto:" + c.Email,
	}
}

type pushNotifier struct {
	client ntfy.Client
}

// NewPush notifies through an ntfy topic.
func NewPush(client ntfy.Client) Notifier {
	return &pushNotifier{client: client}
}

func (p *pushNotifier) Name() string { return "ntfy" }

func (p *pushNotifier) Notify(ctx context.Context, c models.Contact) error {
	return p.client.Publish(ctx, PushMessage(c))
}

type resendNotifier struct {
	client resend.Client
	from   string
	to     string
}

// NewResendEmail notifies by HTML email through Resend.
func NewResendEmail(client resend.Client, from, to string) Notifier {
	return &resendNotifier{client: client, from: from, to: to}
}

func (r *resendNotifier) Name() string { return "resend" }

func (r *resendNotifier) Notify(ctx context.Context, c models.Contact) error {
	html, err := RenderEmailHTML(c)
	if err != nil {
		return err
	}

	_, err = r.client.Send(ctx, resend.Email{
		From:    r.from,
		To:      []string{r.to},
		ReplyTo: c.Email,
		Subject: EmailSubject(c),
		HTML:    html,
		Text:    EmailText(c),
	})

	return err
}

type smtpNotifier struct {
	client smtp.Client
	to     string
}

// NewSMTPEmail notifies by plain text email through an SMTP relay.
func NewSMTPEmail(client smtp.Client, to string) Notifier {
	return &smtpNotifier{client: client, to: to}
}

func (s *smtpNotifier) Name() string { return "smtp" }

func (s *smtpNotifier) Notify(ctx context.Context, c models.Contact) error {
	return s.client.Send(ctx, smtp.Mail{
		To:      []string{s.to},
		ReplyTo: c.Email,
		Subject: EmailSubject(c),
		Body:    EmailText(c),
	})
}

type smsNotifier struct {
	client twilio.Client
}

// NewSMS notifies with a short text message through Twilio.
func NewSMS(client twilio.Client) Notifier {
	return &smsNotifier{client: client}
}

func (s *smsNotifier) Name() string { return "twilio" }

func (s *smsNotifier) Notify(ctx context.Context, c models.Contact) error {
	body := fmt.Sprintf("New %s from %s <%s>", models.Subject(c.Subject).Label, c.FullName(), c.Email)
	_, err := s.client.SendSMS(ctx, body)

	return err
}

type airtableNotifier struct {
	client airtable.Client
	table  string
}

// NewAirtable mirrors contacts into an Airtable table, one row per sender.
func NewAirtable(client airtable.Client, table string) Notifier {
	return &airtableNotifier{client: client, table: table}
}

func (a *airtableNotifier) Name() string { return "airtable" }

func (a *airtableNotifier) Notify(ctx context.Context, c models.Contact) error {
	hash := utils.HashEmail(c.Email)
	exists, err := a.client.RecordExists(ctx, a.table, "hash", hash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return a.client.CreateRecord(ctx, a.table, map[string]any{
		"first":   c.FirstName,
		"last":    c.LastName,
		"email":   c.Email,
		"subject": models.Subject(c.Subject).Label,
		"message": c.Message,
		"hash":    hash,
		"created": c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}
