package upstash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client defines the subset of Redis commands used over the Upstash REST API
type Client interface {
	// Get returns the integer stored at key and whether the key exists.
	Get(ctx context.Context, key string) (int64, bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining time to live; a negative duration means the key
	// has no expiry or does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type clientImpl struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Upstash REST client
func NewClient(baseURL, token string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	return &clientImpl{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *clientImpl) Get(ctx context.Context, key string) (int64, bool, error) {
	var result any
	if err := c.do(ctx, &result, "get", key); err != nil {
		return 0, false, err
	}
	if result == nil {
		return 0, false, nil
	}

	n, err := toInt(result)
	if err != nil {
		return 0, false, fmt.Errorf("error parsing value of %s: %w", key, err)
	}

	return n, true, nil
}

func (c *clientImpl) Incr(ctx context.Context, key string) (int64, error) {
	var result any
	if err := c.do(ctx, &result, "incr", key); err != nil {
		return 0, err
	}

	return toInt(result)
}

func (c *clientImpl) Expire(ctx context.Context, key string, ttl time.Duration) error {
	var result any
	seconds := strconv.FormatInt(int64(ttl/time.Second), 10)

	return c.do(ctx, &result, "expire", key, seconds)
}

func (c *clientImpl) TTL(ctx context.Context, key string) (time.Duration, error) {
	var result any
	if err := c.do(ctx, &result, "ttl", key); err != nil {
		return 0, err
	}
	n, err := toInt(result)
	if err != nil {
		return 0, err
	}

	return time.Duration(n) * time.Second, nil
}

// do issues GET {baseURL}/{command}/{args...} and decodes the "result" field.
func (c *clientImpl) do(ctx context.Context, result *any, command string, args ...string) error {
	parts := []string{c.baseURL, command}
	for _, arg := range args {
		parts = append(parts, url.PathEscape(arg))
	}
	reqURL := strings.Join(parts, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling Upstash %s: %w", command, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var response struct {
		Result any    `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || response.Error != "" {
		return fmt.Errorf("error from Upstash API (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	*result = response.Result
	return nil
}

// toInt accepts both JSON numbers and the string encoding Upstash uses for GET.
func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected result type %T", v)
	}
}
