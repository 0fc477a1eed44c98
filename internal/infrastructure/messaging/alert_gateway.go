package messaging

import (
	"context"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"go.uber.org/zap"
)

// alertEnvelope is the wire format on the alert exchange
type alertEnvelope struct {
	payout.Alert
	Service  string    `json:"service"`
	RaisedAt time.Time `json:"raised_at"`
}

// AlertGateway logs every alert and publishes it to the ops exchange with
// the channel as routing key. Delivery failures are logged and swallowed.
type AlertGateway struct {
	publisher Publisher
	exchange  string
	service   string
	logger    *zap.Logger
	now       func() time.Time
}

var _ payout.Alerter = (*AlertGateway)(nil)

// NewAlertGateway creates an AlertGateway. A nil publisher makes it log only.
func NewAlertGateway(publisher Publisher, exchange, service string, logger *zap.Logger) *AlertGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertGateway{
		publisher: publisher,
		exchange:  exchange,
		service:   service,
		logger:    logger,
		now:       time.Now,
	}
}

// Alert implements payout.Alerter
func (g *AlertGateway) Alert(ctx context.Context, a payout.Alert) {
	fields := []zap.Field{
		zap.String("channel", string(a.Channel)),
		zap.String("tag", a.Tag),
		zap.String("message", a.Message),
	}
	if a.UserID != nil {
		fields = append(fields, zap.String("user_id", a.UserID.String()))
	}
	if len(a.Detail) > 0 {
		fields = append(fields, zap.Any("detail", a.Detail))
	}
	if a.Channel == payout.ChannelFailure {
		g.logger.Error("Payout alert", fields...)
	} else {
		g.logger.Info("Payout alert", fields...)
	}

	if g.publisher == nil {
		return
	}
	env := alertEnvelope{Alert: a, Service: g.service, RaisedAt: g.now().UTC()}
	if err := g.publisher.PublishJSON(ctx, g.exchange, string(a.Channel), env); err != nil {
		g.logger.Warn("Failed to publish alert", append(fields, zap.Error(err))...)
	}
}
