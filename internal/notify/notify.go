package notify

import (
	"context"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
)

// Multi dispatches a message to every notifier in order
type Multi []interfaces.Notifier

// Notify attempts every notifier and returns the first failure
func (m Multi) Notify(ctx context.Context, msg model.Message) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New creates the notifier for all configured channels
func New(cfg Config) (interfaces.Notifier, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	var out Multi
	for _, ch := range cfg.Channels {
		switch ch {
		case ChannelMail:
			n, err := NewMail(cfg.SMTP, cfg.Recipients)
			if err != nil {
				return nil, errm.Wrap(err, "failed to create mail notifier")
			}
			out = append(out, n)

		case ChannelWebhook:
			n, err := NewWebhook(cfg.Webhook)
			if err != nil {
				return nil, errm.Wrap(err, "failed to create webhook notifier")
			}
			out = append(out, n)
		}
	}

	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

// NewOperatorAlert creates a mail notifier addressed to the operator, or nil
// when no operator address or mail server is configured
func NewOperatorAlert(cfg Config) *Mail {
	if cfg.OperatorEmail == "" || cfg.SMTP.Server == "" {
		return nil
	}
	n, err := NewMail(cfg.SMTP, []string{cfg.OperatorEmail})
	if err != nil {
		return nil
	}
	return n
}
