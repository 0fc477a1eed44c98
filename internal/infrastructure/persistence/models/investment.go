package models

import (
	"time"

	"github.com/estatevest/backend/internal/domain/investment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentModel is the persistence model for the Investment domain entity.
type InvestmentModel struct {
	BaseModel
	UserID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	PlanID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	ListingID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	Tokens            decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0"`
	Category          investment.Category `gorm:"type:varchar(20);not null"`
	Duration          int                 `gorm:"not null"`
	StartDate         time.Time           `gorm:"not null"`
	EndDate           time.Time           `gorm:"not null;index:idx_investments_settlement,priority:3"`
	Status            investment.Status   `gorm:"type:varchar(20);not null;default:'active';index:idx_investments_settlement,priority:1"`
	Form              investment.Form     `gorm:"type:varchar(20);not null;default:'new-investment'"`
	PaidOut           bool                `gorm:"not null;default:false;index:idx_investments_settlement,priority:2"`
	PaidOutDate       *time.Time
	AutoReinvest      bool                    `gorm:"not null;default:false"`
	ReinvestMode      investment.ReinvestMode `gorm:"type:varchar(20);not null;default:'none'"`
	DividendsCount    int                     `gorm:"not null;default:0"`
	LastDividendsDate *time.Time
	NextDividendsDate *time.Time
	ReinvestedFrom    *uuid.UUID              `gorm:"type:uuid;index"`
	IsAutoReinvested  bool                    `gorm:"not null;default:false"`
	ReinvestedAs      investment.ReinvestMode `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (InvestmentModel) TableName() string {
	return "investments"
}

// ToDomain converts the persistence model to a domain Investment entity. A
// stored reinvest mode outside the known set is reported as an error; the
// entity is still returned with the raw mode so candidate scans can leave the
// failure to the per-investment load.
func (m *InvestmentModel) ToDomain() (*investment.Investment, error) {
	mode, err := investment.ParseReinvestMode(string(m.ReinvestMode))
	if err != nil {
		mode = m.ReinvestMode
	}
	return &investment.Investment{
		BaseEntity:        m.BaseModel.ToDomain(),
		UserID:            m.UserID,
		PlanID:            m.PlanID,
		ListingID:         m.ListingID,
		Amount:            m.Amount,
		Tokens:            m.Tokens,
		Category:          m.Category,
		Duration:          m.Duration,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		Status:            m.Status,
		Form:              m.Form,
		PaidOut:           m.PaidOut,
		PaidOutDate:       m.PaidOutDate,
		AutoReinvest:      m.AutoReinvest,
		ReinvestMode:      mode,
		DividendsCount:    m.DividendsCount,
		LastDividendsDate: m.LastDividendsDate,
		NextDividendsDate: m.NextDividendsDate,
		ReinvestedFrom:    m.ReinvestedFrom,
		IsAutoReinvested:  m.IsAutoReinvested,
		ReinvestedAs:      m.ReinvestedAs,
	}, err
}

// InvestmentModelFromDomain creates a persistence model from a domain Investment entity.
func InvestmentModelFromDomain(inv *investment.Investment) *InvestmentModel {
	m := &InvestmentModel{
		UserID:            inv.UserID,
		PlanID:            inv.PlanID,
		ListingID:         inv.ListingID,
		Amount:            inv.Amount,
		Tokens:            inv.Tokens,
		Category:          inv.Category,
		Duration:          inv.Duration,
		StartDate:         inv.StartDate,
		EndDate:           inv.EndDate,
		Status:            inv.Status,
		Form:              inv.Form,
		PaidOut:           inv.PaidOut,
		PaidOutDate:       inv.PaidOutDate,
		AutoReinvest:      inv.AutoReinvest,
		ReinvestMode:      inv.ReinvestMode,
		DividendsCount:    inv.DividendsCount,
		LastDividendsDate: inv.LastDividendsDate,
		NextDividendsDate: inv.NextDividendsDate,
		ReinvestedFrom:    inv.ReinvestedFrom,
		IsAutoReinvested:  inv.IsAutoReinvested,
		ReinvestedAs:      inv.ReinvestedAs,
	}
	if m.ReinvestMode == "" {
		m.ReinvestMode = investment.ReinvestNone
	}
	if m.Form == "" {
		m.Form = investment.FormNew
	}
	m.FromDomainBaseEntity(inv.BaseEntity)
	return m
}
