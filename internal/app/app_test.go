package app

import (
	"context"
	"testing"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/config"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/monitor"
	"github.com/maxbolgarin/relwatch/internal/notify"
	"github.com/maxbolgarin/relwatch/internal/provider"
	"github.com/maxbolgarin/relwatch/internal/provider/memory"
	"github.com/maxbolgarin/relwatch/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	messages []model.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg model.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		Provider: provider.Config{Token: "token", Repository: "owner/repo"},
		Watch:    watch.Config{Folder: "src/blocks"},
		Notify: notify.Config{
			Channels: []notify.Channel{notify.ChannelWebhook},
			Webhook:  notify.WebhookConfig{URL: "https://hooks.example.com/x"},
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func testProvider() *memory.Provider {
	p := memory.New()
	p.Releases = []*model.Revision{{ID: "v1.1.0"}, {ID: "v1.0.0"}}
	p.AddComparison(&model.Comparison{
		Base: "v1.0.0",
		Head: "v1.1.0",
		URL:  "https://github.com/owner/repo/compare/v1.0.0...v1.1.0",
		Files: []model.FileChange{
			{Path: "src/blocks/card/view.js", Status: model.StatusAdded, Changes: 5, Additions: 5},
		},
	})
	return p
}

func TestRunCheck(t *testing.T) {
	p := testProvider()
	n := &recordingNotifier{}

	s, err := newWithDeps(testConfig(t), p, n, nil)
	require.NoError(t, err)

	res, err := s.RunCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.OutcomeNotified, res.Outcome)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0].Body, "#diff-")

	res, err = s.RunCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monitor.OutcomeAlreadyNotified, res.Outcome)
	assert.Len(t, n.messages, 1)
}

func TestRunCheckAuthErrorSendsAlert(t *testing.T) {
	p := testProvider()
	p.Err = errm.Wrap(model.ErrAuthentication, "bad credentials")
	n := &recordingNotifier{}
	alert := &recordingNotifier{}

	s, err := newWithDeps(testConfig(t), p, n, alert)
	require.NoError(t, err)

	res, err := s.RunCheck(context.Background())
	require.Error(t, err)
	assert.Equal(t, monitor.OutcomeFailed, res.Outcome)
	assert.Empty(t, n.messages)
	require.Len(t, alert.messages, 1)
	assert.Contains(t, alert.messages[0].Subject, "owner/repo")
	assert.Contains(t, alert.messages[0].Body, "bad credentials")
}

func TestRunCheckNotFoundDoesNotAlert(t *testing.T) {
	p := testProvider()
	p.Err = errm.Wrap(model.ErrNotFound, "no repo")
	alert := &recordingNotifier{}

	s, err := newWithDeps(testConfig(t), p, &recordingNotifier{}, alert)
	require.NoError(t, err)

	_, err = s.RunCheck(context.Background())
	require.Error(t, err)
	assert.Empty(t, alert.messages)
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(config.Config{})
	assert.Error(t, err)
}

func TestSendTestMailRequiresSettings(t *testing.T) {
	err := SendTestMail(context.Background(), notify.Config{})
	assert.Error(t, err)

	err = SendTestMail(context.Background(), notify.Config{
		SMTP: notify.SMTPConfig{Server: "smtp.example.com", Sender: "bot@example.com"},
	})
	assert.Error(t, err)
}

func TestSendTestMailTransportError(t *testing.T) {
	err := SendTestMail(context.Background(), notify.Config{
		Recipients: []string{"ops@example.com"},
		SMTP: notify.SMTPConfig{
			Server:    "127.0.0.1",
			Port:      1,
			Sender:    "bot@example.com",
			TLSPolicy: notify.TLSNone,
		},
	})
	require.Error(t, err)
	assert.True(t, errm.Is(err, model.ErrTransport))
}
