package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for values the service cannot run with.
var ErrInvalidConfig = errors.New("invalid config")

// Rate limit backends.
const (
	RateLimitAuto    = "auto"
	RateLimitUpstash = "upstash"
	RateLimitMemory  = "memory"
	RateLimitOff     = "off"
)

// Captcha providers.
const (
	CaptchaHCaptcha  = "hcaptcha"
	CaptchaTurnstile = "turnstile"
)

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

type ServerConfig struct {
	Port           string   `mapstructure:"port" yaml:"port"`
	Mode           string   `mapstructure:"mode" yaml:"mode"` // gin mode: debug, release, test
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
	IPHashSalt     string   `mapstructure:"ip_hash_salt" yaml:"ip_hash_salt"` // Secret; empty means random per process
}

// ContactConfig holds the form gating thresholds.
type ContactConfig struct {
	MinSubmitTime    time.Duration `mapstructure:"min_submit_time" yaml:"min_submit_time"`
	MessageMinLength int           `mapstructure:"message_min_length" yaml:"message_min_length"`
	MessageMaxLength int           `mapstructure:"message_max_length" yaml:"message_max_length"`
}

type RateLimitConfig struct {
	Backend   string        `mapstructure:"backend" yaml:"backend"`
	Limit     int           `mapstructure:"limit" yaml:"limit"`
	Window    time.Duration `mapstructure:"window" yaml:"window"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// UpstashConfig is the Upstash Redis REST endpoint.
//
// WARNING: Token is a secret and should not be logged.
type UpstashConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Token string `mapstructure:"token" yaml:"token"` // Secret
}

type CaptchaConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Secret   string `mapstructure:"secret" yaml:"secret"` // Secret
}

type NtfyConfig struct {
	Server string `mapstructure:"server" yaml:"server"`
	Topic  string `mapstructure:"topic" yaml:"topic"`
	Token  string `mapstructure:"token" yaml:"token"` // Secret: optional access token
}

type ResendConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // Secret
	From   string `mapstructure:"from" yaml:"from"`
	To     string `mapstructure:"to" yaml:"to"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	User string `mapstructure:"user" yaml:"user"`
	Pass string `mapstructure:"pass" yaml:"pass"` // Secret
	To   string `mapstructure:"to" yaml:"to"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid" yaml:"account_sid"`
	AuthToken  string `mapstructure:"auth_token" yaml:"auth_token"` // Secret
	From       string `mapstructure:"from" yaml:"from"`
	To         string `mapstructure:"to" yaml:"to"`
}

type AirtableConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // Secret
	BaseID string `mapstructure:"base_id" yaml:"base_id"`
	Table  string `mapstructure:"table" yaml:"table"`
}

type NotifyConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Attempts uint          `mapstructure:"attempts" yaml:"attempts"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type SiteConfig struct {
	ContentFile    string `mapstructure:"content_file" yaml:"content_file"`
	ResumePath     string `mapstructure:"resume_path" yaml:"resume_path"`
	ResumeFilename string `mapstructure:"resume_filename" yaml:"resume_filename"`
}

// Config holds all application configuration values
type Config struct {
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Contact   ContactConfig   `mapstructure:"contact" yaml:"contact"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Upstash   UpstashConfig   `mapstructure:"upstash" yaml:"upstash"`
	Captcha   CaptchaConfig   `mapstructure:"captcha" yaml:"captcha"`
	Ntfy      NtfyConfig      `mapstructure:"ntfy" yaml:"ntfy"`
	Resend    ResendConfig    `mapstructure:"resend" yaml:"resend"`
	SMTP      SMTPConfig      `mapstructure:"smtp" yaml:"smtp"`
	Twilio    TwilioConfig    `mapstructure:"twilio" yaml:"twilio"`
	Airtable  AirtableConfig  `mapstructure:"airtable" yaml:"airtable"`
	Notify    NotifyConfig    `mapstructure:"notify" yaml:"notify"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Site      SiteConfig      `mapstructure:"site" yaml:"site"`
}

var defaults = map[string]any{
	"log_level":                  "info",
	"server.port":                "8080",
	"server.mode":                "release",
	"server.allowed_origins":     []string{"*"},
	"server.trusted_proxies":     []string{},
	"contact.min_submit_time":    "3s",
	"contact.message_min_length": 10,
	"contact.message_max_length": 5000,
	"rate_limit.backend":         RateLimitAuto,
	"rate_limit.limit":           3,
	"rate_limit.window":          "1h",
	"rate_limit.key_prefix":      "ratelimit:contact:",
	"captcha.provider":           CaptchaHCaptcha,
	"ntfy.server":                "https://ntfy.sh",
	"ntfy.topic":                 "portfolio-contact",
	"resend.from":                "Portfolio Contact <onboarding@resend.dev>",
	"smtp.port":                  "587",
	"airtable.table":             "Contacts",
	"notify.timeout":             "10s",
	"notify.attempts":            1,
	"storage.backend":            StorageJSON,
	"storage.path":               "data/contacts.json",
	"site.resume_path":           "attached_assets/resume.pdf",
	"site.resume_filename":       "resume.pdf",
}

// envBindings maps config keys to the environment variables that can provide them.
// The first name is preferred; later names are the plain vendor variable names the
// hosted services document, so an existing .env keeps working.
var envBindings = map[string][]string{
	"log_level":                  {"LOG_LEVEL"},
	"server.port":                {"PORT"},
	"server.mode":                {"GIN_MODE"},
	"server.allowed_origins":     {"ALLOWED_ORIGINS"},
	"server.trusted_proxies":     {"TRUSTED_PROXIES"},
	"server.ip_hash_salt":        {"IP_HASH_SALT"},
	"contact.min_submit_time":    {"CONTACT_MIN_SUBMIT_TIME"},
	"contact.message_min_length": {"CONTACT_MESSAGE_MIN_LENGTH"},
	"contact.message_max_length": {"CONTACT_MESSAGE_MAX_LENGTH"},
	"rate_limit.backend":         {"RATE_LIMIT_BACKEND"},
	"rate_limit.limit":           {"RATE_LIMIT_LIMIT"},
	"rate_limit.window":          {"RATE_LIMIT_WINDOW"},
	"rate_limit.key_prefix":      {"RATE_LIMIT_KEY_PREFIX"},
	"upstash.url":                {"UPSTASH_REDIS_REST_URL"},
	"upstash.token":              {"UPSTASH_REDIS_REST_TOKEN"},
	"captcha.provider":           {"CAPTCHA_PROVIDER"},
	"captcha.secret":             {"CAPTCHA_SECRET_KEY", "HCAPTCHA_SECRET_KEY", "TURNSTILE_SECRET_KEY"},
	"ntfy.server":                {"NTFY_SERVER"},
	"ntfy.topic":                 {"NTFY_TOPIC"},
	"ntfy.token":                 {"NTFY_TOKEN"},
	"resend.api_key":             {"RESEND_API_KEY"},
	"resend.from":                {"RESEND_FROM"},
	"resend.to":                  {"NOTIFICATION_EMAIL"},
	"smtp.host":                  {"SMTP_HOST"},
	"smtp.port":                  {"SMTP_PORT"},
	"smtp.user":                  {"SMTP_USER"},
	"smtp.pass":                  {"SMTP_PASS"},
	"smtp.to":                    {"TO_EMAIL", "NOTIFICATION_EMAIL"},
	"twilio.account_sid":         {"TWILIO_ACCOUNT_SID"},
	"twilio.auth_token":          {"TWILIO_AUTH_TOKEN"},
	"twilio.from":                {"TWILIO_FROM"},
	"twilio.to":                  {"TWILIO_TO"},
	"airtable.api_key":           {"AIRTABLE_API_KEY"},
	"airtable.base_id":           {"AIRTABLE_BASE_ID"},
	"airtable.table":             {"AIRTABLE_TABLE"},
	"notify.timeout":             {"NOTIFY_TIMEOUT"},
	"notify.attempts":            {"NOTIFY_ATTEMPTS"},
	"storage.backend":            {"STORAGE_BACKEND"},
	"storage.path":               {"STORAGE_PATH"},
	"site.content_file":          {"SITE_CONTENT_FILE"},
	"site.resume_path":           {"RESUME_PATH"},
	"site.resume_filename":       {"RESUME_FILENAME"},
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// LoadConfig reads configuration from the optional file at filePath, with
// environment variables taking precedence over file values.
func LoadConfig(filePath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)

	return cfg, nil
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: unknown server mode %q", ErrInvalidConfig, c.Server.Mode)
	}
	switch c.RateLimit.Backend {
	case RateLimitAuto, RateLimitUpstash, RateLimitMemory, RateLimitOff:
	default:
		return fmt.Errorf("%w: unknown rate limit backend %q", ErrInvalidConfig, c.RateLimit.Backend)
	}
	if c.RateLimit.Backend != RateLimitOff && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("%w: rate limit and window must be positive", ErrInvalidConfig)
	}
	if c.RateLimit.Backend == RateLimitUpstash && !c.Upstash.Configured() {
		return fmt.Errorf("%w: upstash rate limiting needs UPSTASH_REDIS_REST_URL and UPSTASH_REDIS_REST_TOKEN", ErrInvalidConfig)
	}
	switch c.Captcha.Provider {
	case CaptchaHCaptcha, CaptchaTurnstile:
	default:
		return fmt.Errorf("%w: unknown captcha provider %q", ErrInvalidConfig, c.Captcha.Provider)
	}
	switch c.Storage.Backend {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Contact.MessageMinLength < 0 || c.Contact.MessageMaxLength < c.Contact.MessageMinLength {
		return fmt.Errorf("%w: message length bounds %d..%d", ErrInvalidConfig,
			c.Contact.MessageMinLength, c.Contact.MessageMaxLength)
	}
	if c.Notify.Attempts == 0 {
		return fmt.Errorf("%w: notify attempts must be at least 1", ErrInvalidConfig)
	}

	return nil
}

// Configured reports whether both the REST URL and token are set.
func (u UpstashConfig) Configured() bool {
	return u.URL != "" && u.Token != ""
}

func (r ResendConfig) Configured() bool {
	return r.APIKey != "" && r.To != ""
}

func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.User != "" && s.Pass != "" && s.To != ""
}

func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != "" && t.To != ""
}

func (a AirtableConfig) Configured() bool {
	return a.APIKey != "" && a.BaseID != "" && a.Table != ""
}

func (n NtfyConfig) Configured() bool {
	return n.Server != "" && n.Topic != ""
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)
		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}

// splitList accepts both YAML lists and a single comma separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
