package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/navarrastar/portfolio/pkg/clients/captcha"
	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/models"
	"github.com/navarrastar/portfolio/pkg/ratelimit"
	"github.com/navarrastar/portfolio/pkg/spam"
	"github.com/navarrastar/portfolio/pkg/storage"
	"github.com/navarrastar/portfolio/pkg/utils"
	"github.com/navarrastar/portfolio/pkg/validation"
)

// Messages returned to the visitor.
const (
	MsgSent           = "Message sent successfully!"
	MsgTooFast        = "Please take your time filling out the form."
	MsgCaptchaFailed  = "Security verification failed. Please try again."
	MsgSpam           = "Your message could not be sent. Please try again with a different message."
	MsgInternalError  = "Failed to send message. Please try again."
	msgTooManyFormat  = "Too many messages. Please try again in %d minutes."
	defaultMinSubmit  = 3 * time.Second
	unknownClientAddr = "unknown"
)

// Response is the JSON body of a contact submission.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ID         string `json:"id,omitempty"`
	Remaining  *int   `json:"remaining,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// Outcome is the HTTP status and body for a submission.
type Outcome struct {
	Status   int
	Response Response
}

// RequestMeta carries what the service needs to know about the request.
type RequestMeta struct {
	ClientIP string
}

// Dispatcher delivers a stored contact to the notification channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, contact models.Contact)
}

// ContactService defines the interface for handling contact form submissions
type ContactService interface {
	Submit(ctx context.Context, form models.ContactFormData, meta RequestMeta) (Outcome, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
}

// ContactDeps are the collaborators of the contact service. Captcha may be
// nil when no secret is configured.
type ContactDeps struct {
	Limiter    ratelimit.Limiter
	Captcha    captcha.Client
	Validator  *validation.Validator
	Spam       *spam.Detector
	Store      storage.Store
	Dispatcher Dispatcher
	Hasher     *utils.IPHasher
	Logger     logger.Logger

	MinSubmitTime time.Duration
	Clock         func() time.Time
}

type contactServiceImpl struct {
	ContactDeps
}

// NewContactService creates a new contact service
func NewContactService(deps ContactDeps) ContactService {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.MinSubmitTime <= 0 {
		deps.MinSubmitTime = defaultMinSubmit
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Disabled()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	deps.Logger = deps.Logger.Named("ContactService")

	return &contactServiceImpl{ContactDeps: deps}
}

func reject(status int, msg string) Outcome {
	return Outcome{Status: status, Response: Response{Success: false, Message: msg}}
}

// Submit runs the abuse checks in order and, when they all pass, stores the
// contact and notifies the owner.
func (s *contactServiceImpl) Submit(ctx context.Context, form models.ContactFormData, meta RequestMeta) (Outcome, error) {
	ip := meta.ClientIP
	if ip == "" {
		ip = unknownClientAddr
	}
	client := s.Hasher.Hash(ip)

	if form.Honeypot != "" {
		s.Logger.Infow("Honeypot triggered", "client", client)
		return Outcome{Status: http.StatusOK, Response: Response{Success: true, Message: MsgSent}}, nil
	}

	now := s.Clock()
	if loaded, ok := form.Timestamp.Time(); ok {
		if elapsed := now.Sub(loaded); elapsed < s.MinSubmitTime {
			s.Logger.Infow("Form submitted too fast", "client", client, "elapsed", elapsed)
			return reject(http.StatusBadRequest, MsgTooFast), nil
		}
	}

	limit := s.Limiter.Allow(ctx, ip)
	if !limit.Allowed {
		seconds := int(math.Ceil(limit.ResetIn.Seconds()))
		minutes := int(math.Ceil(float64(seconds) / 60))
		out := reject(http.StatusTooManyRequests, fmt.Sprintf(msgTooManyFormat, minutes))
		out.Response.RetryAfter = seconds

		return out, nil
	}

	if s.Captcha != nil && form.CaptchaToken != "" {
		human, err := s.Captcha.Verify(ctx, form.CaptchaToken, ip)
		switch {
		case err != nil:
			s.Logger.Warnw("Captcha provider unavailable, allowing request", "provider", s.Captcha.Provider(), "client", client, "err", err)
		case !human:
			s.Logger.Infow("Captcha verification failed", "provider", s.Captcha.Provider(), "client", client)
			return reject(http.StatusBadRequest, MsgCaptchaFailed), nil
		}
	}

	in := form.Input()
	if err := s.Validator.Struct(in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return reject(http.StatusBadRequest, verr.Message), nil
		}
		return Outcome{}, fmt.Errorf("error validating contact: %w", err)
	}

	if s.Spam != nil {
		if res := s.Spam.Detect(in.Message, in.Email); res.IsSpam {
			s.Logger.Infow("Spam detected", "client", client, "reason", res.Reason)
			return reject(http.StatusBadRequest, MsgSpam), nil
		}
	}

	// an accepted submission is stored and delivered even if the client hangs up
	ctx = context.WithoutCancel(ctx)

	contact, err := s.store(ctx, in, now)
	if err != nil {
		s.Logger.Errorw("Failed to store contact", "emailHash", utils.HashEmail(in.Email), "err", err)
	}

	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(ctx, contact)
	}
	s.Logger.Infow("Contact form submitted", "contactID", contact.ID, "emailHash", utils.HashEmail(in.Email), "client", client)

	resp := Response{Success: true, Message: MsgSent, ID: contact.ID}
	if limit.Remaining != ratelimit.Unlimited {
		remaining := limit.Remaining
		resp.Remaining = &remaining
	}

	return Outcome{Status: http.StatusOK, Response: resp}, nil
}

// store saves in. When the store fails the returned contact still carries a
// fresh ID so notifications go out.
func (s *contactServiceImpl) store(ctx context.Context, in models.ContactInput, now time.Time) (models.Contact, error) {
	if s.Store == nil {
		return models.NewContact(uuid.NewString(), in, now.UTC()), nil
	}
	contact, err := s.Store.CreateContact(ctx, in)
	if err != nil {
		return models.NewContact(uuid.NewString(), in, now.UTC()), err
	}

	return contact, nil
}

func (s *contactServiceImpl) ListContacts(ctx context.Context) ([]models.Contact, error) {
	if s.Store == nil {
		return []models.Contact{}, nil
	}
	contacts, err := s.Store.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing contacts: %w", err)
	}

	return contacts, nil
}
