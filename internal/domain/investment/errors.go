package investment

import "github.com/estatevest/backend/internal/domain/shared"

var (
	// ErrInvalidDuration marks an investment whose duration cannot be used to prorate
	ErrInvalidDuration = shared.NewDomainError("INVALID_DURATION", "Investment duration must be positive")
	// ErrUnknownCategory marks an investment with an unrecognised category
	ErrUnknownCategory = shared.NewDomainError("UNKNOWN_CATEGORY", "Investment category is not recognised")
	// ErrUnknownReinvestMode marks a stored reinvest mode outside the known set
	ErrUnknownReinvestMode = shared.NewDomainError("UNKNOWN_REINVEST_MODE", "Reinvest mode is not recognised")
	// ErrAlreadySettled is returned when an investment is no longer eligible for settlement
	ErrAlreadySettled = shared.NewDomainError("ALREADY_SETTLED", "Investment has already been settled")
)
