// Package mail delivers transactional email through SendGrid.
package mail

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns a SendGrid sender, or a logging sender when no API key is configured.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendgridAPIKey == "" {
		return &LogSender{logger: logger}
	}
	return NewSendgridSender(cfg.SendgridAPIKey, cfg.FromName, cfg.FromAddress)
}

// SendgridSender posts messages to the SendGrid v3 API.
type SendgridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendgridSender(apiKey, fromName, fromAddress string) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMail(s.from, msg)
	if err != nil {
		return err
	}
	res, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func buildMail(from *sgmail.Email, msg Message) (*sgmail.SGMailV3, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("mail has no recipients")
	}
	if msg.Text == "" && msg.HTML == "" {
		return nil, fmt.Errorf("mail has no content")
	}

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", strings.TrimSpace(to)))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(from)
	m.AddPersonalizations(p)
	if msg.ReplyTo != "" {
		m.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not delivered, no provider configured",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
