package resend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	resendsdk "github.com/resend/resend-go/v2"
)

// Email is one transactional message.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Client defines the interface for interacting with the Resend API
type Client interface {
	// Send delivers email and returns the provider's message ID.
	Send(ctx context.Context, email Email) (string, error)
}

type clientImpl struct {
	client *resendsdk.Client
}

// NewClient creates a new Resend client. A nil baseURL uses the public API.
func NewClient(apiKey string, baseURL *url.URL, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	client := resendsdk.NewCustomClient(httpClient, apiKey)
	if baseURL != nil {
		u := *baseURL
		// endpoints resolve relative to the base, so it needs a trailing slash
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = &u
	}

	return &clientImpl{client: client}
}

func (c *clientImpl) Send(ctx context.Context, email Email) (string, error) {
	resp, err := c.client.Emails.SendWithContext(ctx, &resendsdk.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return "", fmt.Errorf("error sending email: %w", err)
	}

	return resp.Id, nil
}
