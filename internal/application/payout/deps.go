package payout

import (
	"time"

	"github.com/estatevest/backend/internal/domain/investment"
	"go.uber.org/zap"
)

// Dependencies are the collaborators shared by both engines. Deeds, Mailer,
// Notifier and Recorder are optional.
type Dependencies struct {
	Investments investment.Repository
	UnitOfWork  UnitOfWork
	Locker      Locker
	Alerter     Alerter
	Deeds       DeedRenderer
	Mailer      Mailer
	Notifier    NotificationQueue
	Recorder    Recorder
	Logger      *zap.Logger
	Clock       func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}
