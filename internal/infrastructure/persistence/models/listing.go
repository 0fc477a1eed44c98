package models

import (
	"time"

	"github.com/estatevest/backend/internal/domain/listing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingModel is the persistence model for the Listing domain entity.
type ListingModel struct {
	BaseModel
	ProjectName     string              `gorm:"type:varchar(200);not null"`
	Status          listing.Status      `gorm:"type:varchar(20);not null;default:'active';index:idx_listings_active_period,priority:1"`
	FixedReturns    decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	FlexibleReturns decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	Returns         decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	HoldingPeriod   int                 `gorm:"not null;index:idx_listings_active_period,priority:2"`
	AvailableTokens decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0"`
	TokensSold      decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0"`
	AmountRaised    decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0"`
	InvestorCount   int64               `gorm:"not null;default:0"`
	TicketCount     int64               `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the persistence model to a domain Listing entity.
func (m *ListingModel) ToDomain() *listing.Listing {
	return &listing.Listing{
		BaseEntity:      m.BaseModel.ToDomain(),
		ProjectName:     m.ProjectName,
		Status:          m.Status,
		FixedReturns:    m.FixedReturns,
		FlexibleReturns: m.FlexibleReturns,
		Returns:         m.Returns,
		HoldingPeriod:   m.HoldingPeriod,
		AvailableTokens: m.AvailableTokens,
		TokensSold:      m.TokensSold,
		AmountRaised:    m.AmountRaised,
		InvestorCount:   m.InvestorCount,
		TicketCount:     m.TicketCount,
	}
}

// ListingModelFromDomain creates a persistence model from a domain Listing entity.
func ListingModelFromDomain(l *listing.Listing) *ListingModel {
	m := &ListingModel{
		ProjectName:     l.ProjectName,
		Status:          l.Status,
		FixedReturns:    l.FixedReturns,
		FlexibleReturns: l.FlexibleReturns,
		Returns:         l.Returns,
		HoldingPeriod:   l.HoldingPeriod,
		AvailableTokens: l.AvailableTokens,
		TokensSold:      l.TokensSold,
		AmountRaised:    l.AmountRaised,
		InvestorCount:   l.InvestorCount,
		TicketCount:     l.TicketCount,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// ListingInvestorModel is one member of a listing's investor set.
// The composite primary key makes membership a set.
type ListingInvestorModel struct {
	ListingID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ListingInvestorModel) TableName() string {
	return "listing_investors"
}
