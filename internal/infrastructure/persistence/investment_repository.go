package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/estatevest/backend/internal/domain/shared"
	"github.com/estatevest/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvestmentRepository implements investment.Repository using GORM
type GormInvestmentRepository struct {
	db *gorm.DB
}

// NewGormInvestmentRepository creates a new GormInvestmentRepository
func NewGormInvestmentRepository(db *gorm.DB) *GormInvestmentRepository {
	return &GormInvestmentRepository{db: db}
}

// FindByID finds an investment by ID. Inside a transaction the row is locked
// until commit so concurrent settlements serialise on it.
func (r *GormInvestmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*investment.Investment, error) {
	var model models.InvestmentModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	inv, err := model.ToDomain()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// FindEligibleForSettlement lists active, unpaid investments that ended before now
func (r *GormInvestmentRepository) FindEligibleForSettlement(ctx context.Context, now time.Time, limit int) ([]*investment.Investment, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND paid_out = ? AND end_date < ?", investment.StatusActive, false, now.UTC()).
		Order("end_date ASC, id ASC")
	return r.findAll(query, limit)
}

// FindEligibleForDividend lists active flexible investments inside their term
// that have not yet received all their dividends.
func (r *GormInvestmentRepository) FindEligibleForDividend(ctx context.Context, now time.Time, limit int) ([]*investment.Investment, error) {
	now = now.UTC()
	query := r.db.WithContext(ctx).
		Where("category = ? AND status = ? AND paid_out = ?", investment.CategoryFlexible, investment.StatusActive, false).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Where("dividends_count < duration").
		Order("start_date ASC, id ASC")
	return r.findAll(query, limit)
}

func (r *GormInvestmentRepository) findAll(query *gorm.DB, limit int) ([]*investment.Investment, error) {
	if limit > 0 {
		query = query.Limit(limit)
	}
	var investmentModels []models.InvestmentModel
	if err := query.Find(&investmentModels).Error; err != nil {
		return nil, err
	}
	investments := make([]*investment.Investment, len(investmentModels))
	for i := range investmentModels {
		// A bad reinvest mode surfaces when the investment is loaded for processing.
		investments[i], _ = investmentModels[i].ToDomain()
	}
	return investments, nil
}

// Create inserts a new investment
func (r *GormInvestmentRepository) Create(ctx context.Context, inv *investment.Investment) error {
	model := models.InvestmentModelFromDomain(inv)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists dividend bookkeeping with optimistic locking (version check)
func (r *GormInvestmentRepository) Update(ctx context.Context, inv *investment.Investment) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvestmentModel{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]any{
			"dividends_count":     inv.DividendsCount,
			"last_dividends_date": inv.LastDividendsDate,
			"next_dividends_date": inv.NextDividendsDate,
			"updated_at":          inv.UpdatedAt,
			"version":             gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	inv.Version++
	return nil
}

// MarkSettled flips the investment to matured and paid out. The guard on the
// stored row makes a second settlement of the same investment a no-op.
func (r *GormInvestmentRepository) MarkSettled(ctx context.Context, inv *investment.Investment) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvestmentModel{}).
		Where("id = ? AND status = ? AND paid_out = ? AND version = ?", inv.ID, investment.StatusActive, false, inv.Version).
		Updates(map[string]any{
			"status":        inv.Status,
			"paid_out":      inv.PaidOut,
			"paid_out_date": inv.PaidOutDate,
			"updated_at":    inv.UpdatedAt,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return investment.ErrAlreadySettled
	}
	inv.Version++
	return nil
}
