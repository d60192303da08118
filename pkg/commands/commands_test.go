package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navarrastar/portfolio/pkg/config"
	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/models"
	"github.com/navarrastar/portfolio/pkg/storage"
)

func writeConfig(t *testing.T, storePath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: error
rate_limit:
  backend: memory
ntfy:
  topic: ""
storage:
  backend: json
  path: `+storePath+`
`), 0o644))

	return path
}

func seed(t *testing.T, storePath string) {
	t.Helper()
	store, err := storage.NewJSONStore(storePath, storage.WithClock(func() time.Time {
		return time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	_, err = store.CreateContact(context.Background(), models.ContactInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Subject:   models.SubjectPartnership,
		Message:   "Let's build\nthe analytical engine together, properly this time.",
	})
	require.NoError(t, err)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestContactsList(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "contacts.json")
	seed(t, storePath)
	cfgPath := writeConfig(t, storePath)

	out, err := run(t, "contacts", "list", "--config", cfgPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "CREATED"))
	assert.Contains(t, lines[1], "2026-04-01 10:30:00")
	assert.Contains(t, lines[1], "Ada Lovelace")
	assert.Contains(t, lines[1], "Partnership")
	assert.Contains(t, lines[1], "Let's build the analytical engine")
	assert.Contains(t, lines[1], "…")

	out, err = run(t, "contacts", "list", "--json", "--config", cfgPath)
	require.NoError(t, err)
	var contacts []models.Contact
	require.NoError(t, json.Unmarshal([]byte(out), &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "ada@example.com", contacts[0].Email)
}

func TestContactsListEmpty(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "contacts.json")
	out, err := run(t, "contacts", "list", "--config", writeConfig(t, storePath))
	require.NoError(t, err)
	assert.Equal(t, "No contacts.\n", out)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: mongo\n"), 0o644))

	_, err := run(t, "contacts", "list", "--config", path)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewNotifiers(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	assert.Empty(t, newNotifiers(cfg))

	cfg.Ntfy = config.NtfyConfig{Server: "https://ntfy.sh", Topic: "t"}
	cfg.Resend = config.ResendConfig{APIKey: "re_x", To: "me@example.com"}
	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.com", Port: "587", User: "u", Pass: "p", To: "me@example.com"}
	cfg.Airtable = config.AirtableConfig{APIKey: "k", BaseID: "b", Table: "Contacts"}

	var names []string
	for _, n := range newNotifiers(cfg) {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"ntfy", "resend", "airtable"}, names)

	cfg.Resend = config.ResendConfig{}
	cfg.Airtable = config.AirtableConfig{}
	cfg.Twilio = config.TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "+1", To: "+2"}
	names = nil
	for _, n := range newNotifiers(cfg) {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"ntfy", "smtp", "twilio"}, names)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	lggr := logger.Test(t)
	hasher := newIPHasher("")
	base := config.RateLimitConfig{Limit: 1, Window: time.Hour, KeyPrefix: "rl:"}

	cfg := &config.Config{RateLimit: base}
	cfg.RateLimit.Backend = config.RateLimitAuto
	assert.True(t, newLimiter(cfg, lggr, hasher).Allow(context.Background(), "ip").Allowed)
	assert.True(t, newLimiter(cfg, lggr, hasher).Allow(context.Background(), "ip").Allowed)

	cfg.RateLimit.Backend = config.RateLimitMemory
	limiter := newLimiter(cfg, lggr, hasher)
	assert.True(t, limiter.Allow(context.Background(), "ip").Allowed)
	assert.False(t, limiter.Allow(context.Background(), "ip").Allowed)
}

func TestRouterServesContact(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "contacts.json")
	a := &app{configPath: writeConfig(t, storePath)}
	require.NoError(t, a.load())
	a.lggr = logger.Test(t)

	router, cleanup, err := a.newRouter(context.Background())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","subject":"partnership","message":"A long enough message to pass."}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"remaining":2`)

	req = httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "ada@example.com")
}

func TestRouterRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "contacts.json")
	a := &app{configPath: writeConfig(t, storePath)}
	require.NoError(t, a.load())
	a.lggr = logger.Test(t)

	router, cleanup, err := a.newRouter(context.Background())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","subject":"partnership","message":"A long enough message to pass."}`
	accepted := 0
	for i := range 10 {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		switch w.Code {
		case http.StatusOK:
			accepted++
		case http.StatusTooManyRequests:
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		default:
			t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
		}
	}

	assert.Equal(t, 3, accepted)
}
