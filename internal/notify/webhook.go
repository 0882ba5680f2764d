package notify

import (
	"context"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
)

var _ interfaces.Notifier = (*Webhook)(nil)

type webhookRequest struct {
	Text string `json:"text"`
}

type webhookResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Webhook posts notifications to a Slack-compatible incoming webhook
type Webhook struct {
	cli *cliex.HTTP
	url string
	log logze.Logger
}

// NewWebhook creates a webhook notifier
func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	log := logze.With("component", "notifier", "channel", ChannelWebhook)

	cli, err := cliex.NewWithConfig(cliex.Config{
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.Timeout,
	})
	if err != nil {
		return nil, errm.Wrap(err, "failed to create HTTP client")
	}

	return &Webhook{
		cli: cli,
		url: cfg.URL,
		log: log,
	}, nil
}

// Notify posts the subject and body as a single text message
func (w *Webhook) Notify(ctx context.Context, msg model.Message) error {
	req := webhookRequest{Text: "*" + msg.Subject + "*\n\n" + msg.Body}

	var resp webhookResponse
	r, err := w.cli.Post(ctx, w.url, req, &resp)
	if err == nil && r != nil && r.IsError() {
		err = errm.Errorf("webhook returned status %d", r.StatusCode())
	}
	if err != nil {
		return errm.Wrap(model.ErrTransport, "failed to post webhook: "+err.Error())
	}
	if resp.Error != "" {
		return errm.Wrap(model.ErrTransport, "webhook rejected message: "+resp.Error)
	}

	w.log.Info("webhook notification sent")

	return nil
}
