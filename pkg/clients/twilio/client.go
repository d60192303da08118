package twilio

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client defines the interface for sending SMS through Twilio
type Client interface {
	// SendSMS texts body to the configured recipient and returns the message SID.
	SendSMS(ctx context.Context, body string) (string, error)
}

type clientImpl struct {
	client *twilio.RestClient
	from   string
	to     string
}

// NewClient creates a new Twilio client sending from one number to one number
func NewClient(accountSid, authToken, from, to string) Client {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &clientImpl{
		client: client,
		from:   from,
		to:     to,
	}
}

func (c *clientImpl) SendSMS(ctx context.Context, body string) (string, error) {
	// The SDK call is not context aware; bail out early if we are already late.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(c.to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("error sending SMS: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}

	return sid, nil
}
