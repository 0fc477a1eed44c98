package listing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the listing store operations used by the payout worker
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	// FindActiveByHoldingPeriod returns the earliest created active listing
	// whose holding period equals months, or shared.ErrNotFound.
	FindActiveByHoldingPeriod(ctx context.Context, months int) (*Listing, error)
	// Update persists counters and status guarded by Version.
	Update(ctx context.Context, l *Listing) error
	// AddInvestor adds the user to the listing's investor set and reports
	// whether the user was newly added.
	AddInvestor(ctx context.Context, listingID, userID uuid.UUID) (bool, error)
}
