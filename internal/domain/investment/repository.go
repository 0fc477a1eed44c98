package investment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the investment store operations used by the payout worker
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Investment, error)
	// FindEligibleForSettlement lists active, unpaid investments whose end
	// date is before now.
	FindEligibleForSettlement(ctx context.Context, now time.Time, limit int) ([]*Investment, error)
	// FindEligibleForDividend lists active flexible investments inside their
	// term that still have dividends to pay. The monthly guard is applied by
	// the caller.
	FindEligibleForDividend(ctx context.Context, now time.Time, limit int) ([]*Investment, error)
	Create(ctx context.Context, inv *Investment) error
	// Update persists dividend bookkeeping guarded by Version.
	Update(ctx context.Context, inv *Investment) error
	// MarkSettled persists the settled state only if the stored row is still
	// active and unpaid; otherwise it returns ErrAlreadySettled.
	MarkSettled(ctx context.Context, inv *Investment) error
}
