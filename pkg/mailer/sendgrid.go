package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridConfig defines configuration options for the Sendgrid mailer.
type SendgridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Logger    zerolog.Logger
}

// SendgridMailer implements Mailer on top of the Sendgrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	cfg    SendgridConfig
	logger zerolog.Logger
}

// NewSendgridMailer builds a Sendgrid-backed mailer.
func NewSendgridMailer(cfg SendgridConfig) (*SendgridMailer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("sender email is required")
	}

	return &SendgridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// Send delivers one email. Sendgrid treats 2xx as accepted.
func (m *SendgridMailer) Send(ctx context.Context, to, subject, plain, html string) error {
	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), plain, html)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		m.logger.Warn().Int("status", resp.StatusCode).Str("to", to).Msg("sendgrid rejected message")
		return fmt.Errorf("sendgrid send: unexpected status %d", resp.StatusCode)
	}

	m.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
