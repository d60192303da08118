package commands

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/navarrastar/portfolio/pkg/clients/airtable"
	"github.com/navarrastar/portfolio/pkg/clients/captcha"
	"github.com/navarrastar/portfolio/pkg/clients/ntfy"
	"github.com/navarrastar/portfolio/pkg/clients/resend"
	"github.com/navarrastar/portfolio/pkg/clients/smtp"
	"github.com/navarrastar/portfolio/pkg/clients/twilio"
	"github.com/navarrastar/portfolio/pkg/clients/upstash"
	"github.com/navarrastar/portfolio/pkg/config"
	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/notify"
	"github.com/navarrastar/portfolio/pkg/ratelimit"
	"github.com/navarrastar/portfolio/pkg/utils"
)

func newIPHasher(salt string) *utils.IPHasher {
	if salt == "" {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		salt = hex.EncodeToString(buf)
	}

	return utils.NewIPHasher(salt)
}

func newLimiter(cfg *config.Config, lggr logger.Logger, hasher *utils.IPHasher) ratelimit.Limiter {
	lggr = lggr.Named("RateLimit")
	rlCfg := ratelimit.Config{
		Limit:     cfg.RateLimit.Limit,
		Window:    cfg.RateLimit.Window,
		KeyPrefix: cfg.RateLimit.KeyPrefix,
	}

	switch cfg.RateLimit.Backend {
	case config.RateLimitUpstash:
		return ratelimit.New(upstash.NewClient(cfg.Upstash.URL, cfg.Upstash.Token, nil), rlCfg, lggr, hasher)
	case config.RateLimitMemory:
		return ratelimit.New(ratelimit.NewMemoryStore(nil), rlCfg, lggr, hasher)
	case config.RateLimitAuto:
		if cfg.Upstash.Configured() {
			return ratelimit.New(upstash.NewClient(cfg.Upstash.URL, cfg.Upstash.Token, nil), rlCfg, lggr, hasher)
		}
		lggr.Warnw("Upstash not configured, rate limiting disabled")
	}

	return ratelimit.Disabled()
}

// newCaptcha returns nil when no secret is configured.
func newCaptcha(cfg *config.Config) captcha.Client {
	if cfg.Captcha.Secret == "" {
		return nil
	}
	if cfg.Captcha.Provider == config.CaptchaTurnstile {
		return captcha.NewTurnstileClient(cfg.Captcha.Secret, nil)
	}

	return captcha.NewHCaptchaClient(cfg.Captcha.Secret, nil)
}

// newNotifiers registers one notifier per configured channel. Resend wins
// over SMTP when both are set.
func newNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.Ntfy.Configured() {
		notifiers = append(notifiers, notify.NewPush(ntfy.NewClient(cfg.Ntfy.Server, cfg.Ntfy.Topic, cfg.Ntfy.Token, nil)))
	}

	switch {
	case cfg.Resend.Configured():
		client := resend.NewClient(cfg.Resend.APIKey, nil, nil)
		notifiers = append(notifiers, notify.NewResendEmail(client, cfg.Resend.From, cfg.Resend.To))
	case cfg.SMTP.Configured():
		client := smtp.NewClient(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass)
		notifiers = append(notifiers, notify.NewSMTPEmail(client, cfg.SMTP.To))
	}

	if cfg.Twilio.Configured() {
		client := twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.To)
		notifiers = append(notifiers, notify.NewSMS(client))
	}

	if cfg.Airtable.Configured() {
		client := airtable.NewClient(cfg.Airtable.APIKey, cfg.Airtable.BaseID, "", nil)
		notifiers = append(notifiers, notify.NewAirtable(client, cfg.Airtable.Table))
	}

	return notifiers
}

func newDispatcher(cfg *config.Config, lggr logger.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(
		lggr.Named("Notify"),
		newNotifiers(cfg),
		notify.WithTimeout(cfg.Notify.Timeout),
		notify.WithAttempts(cfg.Notify.Attempts),
	)
}
