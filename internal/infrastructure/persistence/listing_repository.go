package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/estatevest/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormListingRepository implements listing.Repository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByHoldingPeriod returns the oldest active listing with the given
// holding period. The row is locked so concurrent reinvestments into the same
// listing cannot oversell its tokens.
func (r *GormListingRepository) FindActiveByHoldingPeriod(ctx context.Context, months int) (*listing.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND holding_period = ?", listing.StatusActive, months).
		Order("created_at ASC, id ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update persists the listing counters and status with optimistic locking
func (r *GormListingRepository) Update(ctx context.Context, l *listing.Listing) error {
	result := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("id = ? AND version = ?", l.ID, l.Version).
		Updates(map[string]any{
			"status":           l.Status,
			"available_tokens": l.AvailableTokens,
			"tokens_sold":      l.TokensSold,
			"amount_raised":    l.AmountRaised,
			"investor_count":   l.InvestorCount,
			"ticket_count":     l.TicketCount,
			"updated_at":       l.UpdatedAt,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	l.Version++
	return nil
}

// AddInvestor inserts the membership row and reports whether it was new
func (r *GormListingRepository) AddInvestor(ctx context.Context, listingID, userID uuid.UUID) (bool, error) {
	model := models.ListingInvestorModel{
		ListingID: listingID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
