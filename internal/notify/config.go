package notify

import (
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const (
	defaultSMTPPort       = 587
	defaultSMTPTimeout    = 30 * time.Second
	defaultWebhookTimeout = 15 * time.Second
	defaultUserAgent      = "relwatch/0.1.0 (https://github.com/maxbolgarin/relwatch)"
)

// Channel is a notification delivery channel
type Channel string

const (
	ChannelMail    Channel = "mail"
	ChannelWebhook Channel = "webhook"
)

var supportedChannels = []Channel{ChannelMail, ChannelWebhook}

// TLSPolicy defines how the SMTP connection is secured
type TLSPolicy string

const (
	TLSMandatory     TLSPolicy = "mandatory"
	TLSOpportunistic TLSPolicy = "opportunistic"
	TLSNone          TLSPolicy = "none"
)

// Config represents notification configuration
type Config struct {
	Channels      []Channel `yaml:"channels" env:"NOTIFY_CHANNELS" env-separator:","`
	Recipients    []string  `yaml:"recipients" env:"RECEIVER_EMAIL" env-separator:"," validate:"dive,email"`
	OperatorEmail string    `yaml:"operator_email" env:"OPERATOR_EMAIL" validate:"omitempty,email"`

	SMTP    SMTPConfig    `yaml:"smtp"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SMTPConfig represents mail server configuration
type SMTPConfig struct {
	Server    string        `yaml:"server" env:"SMTP_SERVER"`
	Port      int           `yaml:"port" env:"SMTP_PORT"`
	Sender    string        `yaml:"sender" env:"SENDER_EMAIL" validate:"omitempty,email"`
	Username  string        `yaml:"username" env:"SMTP_USERNAME"`
	Password  string        `yaml:"password" env:"EMAIL_PASSWORD"`
	TLSPolicy TLSPolicy     `yaml:"tls_policy" env:"SMTP_TLS_POLICY"`
	Timeout   time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT"`
}

// WebhookConfig represents a chat webhook (Slack-compatible) configuration
type WebhookConfig struct {
	URL       string        `yaml:"url" env:"WEBHOOK_URL" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" env:"WEBHOOK_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"WEBHOOK_USER_AGENT"`
}

func (c *Config) PrepareAndValidate() error {
	if len(c.Channels) == 0 {
		c.Channels = []Channel{ChannelMail}
	}
	for i, ch := range c.Channels {
		c.Channels[i] = Channel(strings.ToLower(strings.TrimSpace(string(ch))))
		if !slices.Contains(supportedChannels, c.Channels[i]) {
			return errm.Errorf("invalid notification channel: %s", ch)
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return errm.Wrap(err, "invalid notification config")
	}

	if c.HasChannel(ChannelMail) {
		if err := c.SMTP.PrepareAndValidate(); err != nil {
			return errm.Wrap(err, "smtp")
		}
		if len(c.Recipients) == 0 {
			return errm.New("at least one recipient is required for mail notifications")
		}
	}
	if c.HasChannel(ChannelWebhook) {
		if err := c.Webhook.PrepareAndValidate(); err != nil {
			return errm.Wrap(err, "webhook")
		}
	}

	return nil
}

// HasChannel reports whether the channel is enabled
func (c *Config) HasChannel(ch Channel) bool {
	return slices.Contains(c.Channels, ch)
}

func (c *SMTPConfig) PrepareAndValidate() error {
	if c.Server == "" {
		return errm.New("server is required")
	}
	if c.Sender == "" {
		return errm.New("sender is required")
	}

	c.Port = lang.Check(c.Port, defaultSMTPPort)
	c.Username = lang.Check(c.Username, c.Sender)
	c.TLSPolicy = lang.Check(c.TLSPolicy, TLSMandatory)
	c.Timeout = lang.Check(c.Timeout, defaultSMTPTimeout)

	switch c.TLSPolicy {
	case TLSMandatory, TLSOpportunistic, TLSNone:
	default:
		return errm.Errorf("invalid tls policy: %s", c.TLSPolicy)
	}

	return nil
}

func (c *WebhookConfig) PrepareAndValidate() error {
	if c.URL == "" {
		return errm.New("url is required")
	}
	c.Timeout = lang.Check(c.Timeout, defaultWebhookTimeout)
	c.UserAgent = lang.Check(c.UserAgent, defaultUserAgent)
	return nil
}
