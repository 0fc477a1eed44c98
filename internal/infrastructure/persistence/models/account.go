package models

import (
	"time"

	"github.com/estatevest/backend/internal/domain/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	FirstName           string          `gorm:"type:varchar(100);not null"`
	LastName            string          `gorm:"type:varchar(100)"`
	Email               string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	TotalAmountInvested decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *account.User {
	return &account.User{
		BaseEntity:          m.BaseModel.ToDomain(),
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Email:               m.Email,
		TotalAmountInvested: m.TotalAmountInvested,
	}
}

// UserModelFromDomain creates a persistence model from a domain User entity.
func UserModelFromDomain(u *account.User) *UserModel {
	m := &UserModel{
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Email:               u.Email,
		TotalAmountInvested: u.TotalAmountInvested,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// PlanModel is the persistence model for the Plan domain entity.
type PlanModel struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name   string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan entity.
func (m *PlanModel) ToDomain() *account.Plan {
	return &account.Plan{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Name:       m.Name,
	}
}

// PlanModelFromDomain creates a persistence model from a domain Plan entity.
func PlanModelFromDomain(p *account.Plan) *PlanModel {
	m := &PlanModel{
		UserID: p.UserID,
		Name:   p.Name,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// WalletModel is the persistence model for the Wallet domain entity.
type WalletModel struct {
	BaseModel
	UserID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Currency string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Balance  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (WalletModel) TableName() string {
	return "wallets"
}

// ToDomain converts the persistence model to a domain Wallet entity.
func (m *WalletModel) ToDomain() *account.Wallet {
	return &account.Wallet{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Currency:   m.Currency,
		Balance:    m.Balance,
	}
}

// WalletModelFromDomain creates a persistence model from a domain Wallet entity.
func WalletModelFromDomain(w *account.Wallet) *WalletModel {
	m := &WalletModel{
		UserID:   w.UserID,
		Currency: w.Currency,
		Balance:  w.Balance,
	}
	m.FromDomainBaseEntity(w.BaseEntity)
	return m
}

// WalletTransactionModel is one ledger row. Reference is unique so a
// replayed credit finds the original row instead of inserting another.
type WalletTransactionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	WalletID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	GatewayTag    string          `gorm:"type:varchar(50);not null"`
	Description   string          `gorm:"type:varchar(500)"`
	Reference     string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}
