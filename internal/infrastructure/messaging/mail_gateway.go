package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/google/uuid"
)

// MailJob is consumed by the mail service from the outbound queue
type MailJob struct {
	ID          string         `json:"id"`
	Template    string         `json:"template"`
	To          string         `json:"to"`
	Subject     string         `json:"subject"`
	Props       map[string]any `json:"props"`
	RequestedAt time.Time      `json:"requested_at"`
}

// MailGateway hands templated emails to the mail service as durable queue messages
type MailGateway struct {
	publisher Publisher
	queue     string
	now       func() time.Time
}

var _ payout.Mailer = (*MailGateway)(nil)

// NewMailGateway creates a MailGateway publishing to queue
func NewMailGateway(publisher Publisher, queue string) *MailGateway {
	return &MailGateway{publisher: publisher, queue: queue, now: time.Now}
}

// SendTemplateEmail implements payout.Mailer
func (g *MailGateway) SendTemplateEmail(ctx context.Context, template string, msg payout.EmailMessage) error {
	if template == "" {
		return errors.New("mail template is required")
	}
	if msg.To == "" {
		return errors.New("mail recipient is required")
	}
	job := MailJob{
		ID:          uuid.NewString(),
		Template:    template,
		To:          msg.To,
		Subject:     msg.Subject,
		Props:       msg.Props,
		RequestedAt: g.now().UTC(),
	}
	if err := g.publisher.PublishJSON(ctx, "", g.queue, job); err != nil {
		return fmt.Errorf("failed to enqueue %s email: %w", template, err)
	}
	return nil
}
