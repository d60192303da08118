package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/models"
	"github.com/navarrastar/portfolio/pkg/ratelimit"
	"github.com/navarrastar/portfolio/pkg/spam"
	"github.com/navarrastar/portfolio/pkg/utils"
	"github.com/navarrastar/portfolio/pkg/validation"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fakeCaptcha struct {
	ok    bool
	err   error
	calls int
	ip    string
}

func (f *fakeCaptcha) Provider() string { return "hcaptcha" }

func (f *fakeCaptcha) Verify(_ context.Context, _ string, remoteIP string) (bool, error) {
	f.calls++
	f.ip = remoteIP
	return f.ok, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	err      error
	ctxErr   error
	contacts []models.Contact
}

func (f *fakeStore) CreateContact(ctx context.Context, in models.ContactInput) (models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return models.Contact{}, f.err
	}
	c := models.NewContact("stored-1", in, fixedNow)
	f.contacts = append(f.contacts, c)
	return c, nil
}

func (f *fakeStore) ListContacts(context.Context) ([]models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts, f.err
}

func (f *fakeStore) Close() error { return nil }

type fakeDispatcher struct {
	sent   []models.Contact
	ctxErr error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, c models.Contact) {
	f.ctxErr = ctx.Err()
	f.sent = append(f.sent, c)
}

type fixture struct {
	svc        ContactService
	limiter    ratelimit.Limiter
	captcha    *fakeCaptcha
	store      *fakeStore
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T, mutate func(*ContactDeps)) *fixture {
	t.Helper()
	f := &fixture{
		limiter: ratelimit.New(
			ratelimit.NewMemoryStore(func() time.Time { return fixedNow }),
			ratelimit.Config{Limit: 3, Window: time.Hour, KeyPrefix: "ratelimit:contact:"},
			logger.Test(t), utils.NewIPHasher("salt"),
		),
		captcha:    &fakeCaptcha{ok: true},
		store:      &fakeStore{},
		dispatcher: &fakeDispatcher{},
	}
	deps := ContactDeps{
		Limiter:    f.limiter,
		Captcha:    f.captcha,
		Validator:  validation.New(),
		Spam:       spam.NewDetector(10, 5000),
		Store:      f.store,
		Dispatcher: f.dispatcher,
		Hasher:     utils.NewIPHasher("salt"),
		Logger:     logger.Test(t),
		Clock:      func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&deps)
	}
	f.svc = NewContactService(deps)

	return f
}

func validForm() models.ContactFormData {
	return models.ContactFormData{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Subject:      models.SubjectFreelanceProject,
		Message:      "I have a project that needs an engine.",
		CaptchaToken: "token",
		Timestamp:    models.FormTimestamp(fixedNow.Add(-time.Minute).UnixMilli()),
	}
}

var meta = RequestMeta{ClientIP: "203.0.113.9"}

func TestSubmitSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	out, err := f.svc.Submit(context.Background(), validForm(), meta)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, out.Status)
	assert.True(t, out.Response.Success)
	assert.Equal(t, MsgSent, out.Response.Message)
	assert.Equal(t, "stored-1", out.Response.ID)
	require.NotNil(t, out.Response.Remaining)
	assert.Equal(t, 2, *out.Response.Remaining)

	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, "stored-1", f.dispatcher.sent[0].ID)
	assert.Equal(t, 1, f.captcha.calls)
	assert.Equal(t, "203.0.113.9", f.captcha.ip)
}

func TestSubmitHoneypot(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	form := validForm()
	form.Honeypot = "http://spam.example"
	form.Email = "not-an-email"

	out, err := f.svc.Submit(context.Background(), form, meta)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, Response{Success: true, Message: MsgSent}, out.Response)
	assert.Empty(t, f.store.contacts)
	assert.Empty(t, f.dispatcher.sent)

	// Honeypot hits do not count against the limit.
	assert.Equal(t, 2, f.limiter.Allow(context.Background(), meta.ClientIP).Remaining)
}

func TestSubmitTooFast(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	form := validForm()
	form.Timestamp = models.FormTimestamp(fixedNow.Add(-2 * time.Second).UnixMilli())

	out, err := f.svc.Submit(context.Background(), form, meta)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, out.Status)
	assert.Equal(t, MsgTooFast, out.Response.Message)
	assert.False(t, out.Response.Success)

	form.Timestamp = 0
	out, err = f.svc.Submit(context.Background(), form, meta)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Status)
}

func TestSubmitRateLimited(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	for range 3 {
		out, err := f.svc.Submit(context.Background(), validForm(), meta)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, out.Status)
	}

	out, err := f.svc.Submit(context.Background(), validForm(), meta)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, out.Status)
	assert.Equal(t, "Too many messages. Please try again in 60 minutes.", out.Response.Message)
	assert.Equal(t, 3600, out.Response.RetryAfter)
	assert.Len(t, f.dispatcher.sent, 3)

	other, err := f.svc.Submit(context.Background(), validForm(), RequestMeta{ClientIP: "198.51.100.1"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, other.Status)
}

func TestSubmitCaptcha(t *testing.T) {
	t.Parallel()

	t.Run("rejected", func(t *testing.T) {
		f := newFixture(t, nil)
		f.captcha.ok = false
		out, err := f.svc.Submit(context.Background(), validForm(), meta)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, out.Status)
		assert.Equal(t, MsgCaptchaFailed, out.Response.Message)
	})

	t.Run("provider down fails open", func(t *testing.T) {
		f := newFixture(t, nil)
		f.captcha.ok = false
		f.captcha.err = errors.New("dial tcp: timeout")
		out, err := f.svc.Submit(context.Background(), validForm(), meta)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, out.Status)
	})

	t.Run("no token skips", func(t *testing.T) {
		f := newFixture(t, nil)
		f.captcha.ok = false
		form := validForm()
		form.CaptchaToken = ""
		out, err := f.svc.Submit(context.Background(), form, meta)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, out.Status)
		assert.Zero(t, f.captcha.calls)
	})

	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, func(d *ContactDeps) { d.Captcha = nil })
		out, err := f.svc.Submit(context.Background(), validForm(), meta)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, out.Status)
	})
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.ContactFormData)
		msg    string
	}{
		{"missing last name", func(f *models.ContactFormData) { f.LastName = "  " }, validation.MsgRequired},
		{"missing subject", func(f *models.ContactFormData) { f.Subject = "" }, validation.MsgRequired},
		{"bad email", func(f *models.ContactFormData) { f.Email = "ada@example" }, validation.MsgInvalidEmail},
		{"spam keyword", func(f *models.ContactFormData) { f.Message = "You are a winner of our draw, reply now" }, MsgSpam},
		{"too short", func(f *models.ContactFormData) { f.Message = "hi" }, MsgSpam},
		{"disposable sender", func(f *models.ContactFormData) { f.Email = "bot@mailinator.com" }, MsgSpam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			form := validForm()
			tt.mutate(&form)

			out, err := f.svc.Submit(context.Background(), form, meta)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, out.Status)
			assert.Equal(t, tt.msg, out.Response.Message)
			assert.Empty(t, f.dispatcher.sent)
		})
	}
}

func TestSubmitStoreFailureStillNotifies(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.store.err = errors.New("disk full")

	out, err := f.svc.Submit(context.Background(), validForm(), meta)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.NotEmpty(t, out.Response.ID)
	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, out.Response.ID, f.dispatcher.sent[0].ID)
}

func TestSubmitDeliversAfterClientDisconnect(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFixture(t, nil)
	out, err := f.svc.Submit(ctx, validForm(), meta)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Status)

	require.Len(t, f.store.contacts, 1)
	require.NoError(t, f.store.ctxErr)
	require.Len(t, f.dispatcher.sent, 1)
	assert.NoError(t, f.dispatcher.ctxErr)
}

func TestSubmitUnlimitedOmitsRemaining(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(d *ContactDeps) { d.Limiter = ratelimit.Disabled() })
	out, err := f.svc.Submit(context.Background(), validForm(), meta)
	require.NoError(t, err)
	assert.Nil(t, out.Response.Remaining)
}

func TestListContacts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.svc.Submit(context.Background(), validForm(), meta)
	require.NoError(t, err)

	contacts, err := f.svc.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ada", contacts[0].FirstName)

	f.store.err = errors.New("locked")
	_, err = f.svc.ListContacts(context.Background())
	require.ErrorContains(t, err, "locked")
}
