package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrLocked is returned when another worker holds the investment lock
var ErrLocked = errors.New("investment is locked by another worker")

// ErrNotDue is returned when a dividend is no longer due on a fresh read
var ErrNotDue = errors.New("dividend is not due")

// MissingReferenceError reports an entity an investment points at that does not exist
type MissingReferenceError struct {
	Entity string
	ID     uuid.UUID
}

func (e *MissingReferenceError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// CreditFailedError reports a wallet credit the ledger declined
type CreditFailedError struct {
	Reference string
	Message   string
}

func (e *CreditFailedError) Error() string {
	return fmt.Sprintf("wallet credit %s declined: %s", e.Reference, e.Message)
}

// ErrorClass groups failures for alert tags and metrics
type ErrorClass string

const (
	ClassDataIntegrity ErrorClass = "data_integrity"
	ClassTransient     ErrorClass = "transient"
	ClassConflict      ErrorClass = "conflict"
	ClassInternal      ErrorClass = "internal"
)

// Classify maps a per-investment failure onto its error class
func Classify(err error) ErrorClass {
	var missing *MissingReferenceError
	var declined *CreditFailedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &missing),
		errors.Is(err, investment.ErrInvalidDuration),
		errors.Is(err, investment.ErrUnknownCategory),
		errors.Is(err, investment.ErrUnknownReinvestMode):
		return ClassDataIntegrity
	case errors.Is(err, investment.ErrAlreadySettled),
		errors.Is(err, shared.ErrConcurrencyConflict),
		errors.Is(err, ErrLocked),
		errors.Is(err, ErrNotDue):
		return ClassConflict
	case errors.As(err, &declined),
		errors.Is(err, listing.ErrInsufficientTokens),
		errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	}
	return ClassInternal
}

// referenceError converts a not-found repository error into a MissingReferenceError
func referenceError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return &MissingReferenceError{Entity: entity, ID: id}
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}
