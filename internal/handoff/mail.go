package handoff

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/wneessen/go-mail"
)

// MailConfig holds SMTP settings for order emails.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

var _ Notifier = (*Mailer)(nil)

// Mailer sends plain-text order copies over SMTP.
type Mailer struct {
	cfg MailConfig
}

// NewMailer validates cfg. It does not connect.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, errors.New("smtp from and to addresses are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}, nil
}

func (m *Mailer) message(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, errors.Wrap(err, "from address")
	}
	if err := msg.To(m.cfg.To); err != nil {
		return nil, errors.Wrap(err, "to address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Notify sends one email.
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	msg, err := m.message(subject, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}
