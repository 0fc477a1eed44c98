// Package models holds the GORM models behind the payout repositories.
// Domain entities carry no ORM tags; each model has a ToDomain method and a
// *ModelFromDomain constructor.
//
//   - base.go: BaseModel with id, audit timestamps and the lock version
//   - account.go: users, plans, wallets and the wallet ledger
//   - listing.go: listings and their investor set
//   - investment.go: investments
package models
