package notify

import (
	"context"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
	"github.com/wneessen/go-mail"
)

var _ interfaces.Notifier = (*Mail)(nil)

// Mail sends notifications over SMTP
type Mail struct {
	cfg        SMTPConfig
	recipients []string
	log        logze.Logger
}

// NewMail creates a mail notifier sending to the given default recipients
func NewMail(cfg SMTPConfig, recipients []string) (*Mail, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}
	return &Mail{
		cfg:        cfg,
		recipients: recipients,
		log:        logze.With("component", "notifier", "channel", ChannelMail),
	}, nil
}

// Notify sends the message to msg.To, or to the default recipients when empty
func (m *Mail) Notify(ctx context.Context, msg model.Message) error {
	to := msg.To
	if len(to) == 0 {
		to = m.recipients
	}

	message, err := m.buildMessage(msg.Subject, msg.Body, to)
	if err != nil {
		return errm.Wrap(err, "failed to build message")
	}

	client, err := mail.NewClient(m.cfg.Server, m.clientOptions()...)
	if err != nil {
		return errm.Wrap(model.ErrTransport, "failed to create SMTP client: "+err.Error())
	}

	m.log.Info("sending email", "server", m.cfg.Server, "port", m.cfg.Port, "recipients", len(to))

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return errm.Wrap(model.ErrTransport, "failed to send email: "+err.Error())
	}

	m.log.Info("email sent")

	return nil
}

func (m *Mail) buildMessage(subject, body string, to []string) (*mail.Msg, error) {
	if len(to) == 0 {
		return nil, errm.New("no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return nil, errm.Wrap(err, "invalid sender")
	}
	if err := msg.To(to...); err != nil {
		return nil, errm.Wrap(err, "invalid recipient")
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

func (m *Mail) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
	}

	switch m.cfg.TLSPolicy {
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case TLSOpportunistic:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	return opts
}
