// Package payout runs the scheduled settlement and dividend batches for
// investments. Every investment is processed inside its own unit of work so a
// failure only ever affects that investment.
package payout

import (
	"context"
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/google/uuid"
)

// Tx exposes repositories bound to one open transaction
type Tx interface {
	Investments() investment.Repository
	Listings() listing.Repository
	Users() account.UserRepository
	Plans() account.PlanRepository
	Wallets() account.WalletRepository
	Ledger() account.WalletLedger
}

// UnitOfWork runs fn inside a transaction. Returning an error from fn rolls
// back every write made through tx; returning nil commits.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Locker provides mutual exclusion per investment across processes
type Locker interface {
	// Acquire returns acquired=false without error when the key is held elsewhere.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// LockKey is the lock shared by the settlement and dividend engines
func LockKey(id uuid.UUID) string {
	return "investment:" + id.String()
}

// Channel is the operations channel an alert is routed to
type Channel string

const (
	ChannelSuccess Channel = "success"
	ChannelFailure Channel = "failure"
)

// Alert is an operational message for the operations team
type Alert struct {
	UserID   *uuid.UUID     `json:"user_id,omitempty"`
	UserName string         `json:"user_name,omitempty"`
	Message  string         `json:"message"`
	Channel  Channel        `json:"channel"`
	Tag      string         `json:"tag"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// Alerter delivers operational alerts. Implementations must not block the
// caller on delivery failures and never return errors.
type Alerter interface {
	Alert(ctx context.Context, a Alert)
}

// DeedPayload is the data printed on an investment deed
type DeedPayload struct {
	InvestmentID uuid.UUID
	InvestorName string
	Email        string
	ProjectName  string
	Amount       string
	Tokens       string
	Category     string
	Duration     int
	StartDate    time.Time
	EndDate      time.Time
	IssuedAt     time.Time
}

// DeedRenderer produces a deed document and returns a link to it
type DeedRenderer interface {
	RenderDeed(ctx context.Context, p DeedPayload) (string, error)
}

// EmailMessage is a templated email request
type EmailMessage struct {
	To      string         `json:"to"`
	Subject string         `json:"subject"`
	Props   map[string]any `json:"props"`
}

// Mailer hands templated emails to the mail service
type Mailer interface {
	SendTemplateEmail(ctx context.Context, template string, msg EmailMessage) error
}

// Notification is an in-app message for a user
type Notification struct {
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	ActionLink string    `json:"action_link"`
}

// NotificationQueue enqueues user notifications for delivery
type NotificationQueue interface {
	Enqueue(ctx context.Context, n Notification) error
}
