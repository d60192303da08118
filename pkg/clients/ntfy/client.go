package ntfy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Message is a single push notification.
type Message struct {
	Title    string
	Body     string
	Tags     string // comma separated emoji short codes
	Priority int    // 1 (min) .. 5 (urgent); 0 leaves the server default
	Click    string // URL opened when the notification is tapped
}

// Client defines the interface for publishing to an ntfy topic
type Client interface {
	Publish(ctx context.Context, msg Message) error
}

type clientImpl struct {
	server     string
	topic      string
	token      string
	httpClient *http.Client
}

// NewClient creates a new ntfy client for one topic. token may be empty for
// public topics.
func NewClient(server, topic, token string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &clientImpl{
		server:     strings.TrimRight(server, "/"),
		topic:      topic,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *clientImpl) Publish(ctx context.Context, msg Message) error {
	publishURL := fmt.Sprintf("%s/%s", c.server, c.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if msg.Priority > 0 {
		req.Header.Set("Priority", strconv.Itoa(msg.Priority))
	}
	if msg.Tags != "" {
		req.Header.Set("Tags", msg.Tags)
	}
	if msg.Click != "" {
		req.Header.Set("Click", msg.Click)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error publishing to ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("error from ntfy API (%d): %s", resp.StatusCode, string(body))
	}

	return nil
}
