// Package mailer delivers generated reports by email.
package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender is the delivery capability the report command depends on.
type Sender interface {
	SendReport(ctx context.Context, to []string, subject, fileName string, attachment []byte) error
}

type Mailer struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger.With().Str("module", "mailer").Logger()}
}

// SendReport emails the workbook as an xlsx attachment to every
// recipient in one message.
func (m *Mailer) SendReport(ctx context.Context, to []string, subject, fileName string, attachment []byte) error {
	msg, err := m.message(to, subject, fileName, attachment)
	if err != nil {
		return err
	}

	opts := []mail.Option{mail.WithPort(m.cfg.Port), mail.WithTLSPortPolicy(mail.TLSOpportunistic)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password))
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	m.log.Info().Strs("to", to).Str("attachment", fileName).Msg("sending report")
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	return nil
}

func (m *Mailer) message(to []string, subject, fileName string, attachment []byte) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipients %v: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, "Please find the generated report attached.")
	if err := msg.AttachReader(fileName, bytes.NewReader(attachment)); err != nil {
		return nil, fmt.Errorf("attach %s: %w", fileName, err)
	}
	return msg, nil
}
