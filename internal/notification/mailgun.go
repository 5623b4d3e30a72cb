package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"
)

// Transport submits a composed message to the outside world.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer sends messages through Mailgun.
type Mailer struct {
	mg      *mailgun.MailgunImpl
	from    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewMailer creates a Mailgun-backed transport. The sender address is
// "<fromName> <postmaster@domain>".
func NewMailer(domain, apiKey, fromName string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		mg:      mailgun.NewMailgun(domain, apiKey),
		from:    fmt.Sprintf("%s <postmaster@%s>", fromName, domain),
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Send submits the message. The context is bounded so a stalled provider
// cannot hang an approval indefinitely.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	message := m.mg.NewMessage(m.from, msg.Subject, msg.Text,
		fmt.Sprintf("%s <%s>", msg.ToName, msg.To))

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, id, err := m.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	m.logger.Info("mailgun email sent",
		zap.String("recipient", msg.To),
		zap.String("message_id", id),
		zap.String("response", resp),
	)
	return nil
}
