package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/quirkcart/quirkcart/internal/constants"
)

// GiftCard is a stored-value card. The balance pair plus the transaction
// ledger reconstructs its full history.
type GiftCard struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                             // primary key
	Code            string         `gorm:"type:varchar(24);uniqueIndex;not null" json:"code"`                // GC-XXXX-XXXX-XXXX
	InitialBalance  Money          `gorm:"type:decimal(12,2);not null" json:"initial_balance"`               // issued value
	CurrentBalance  Money          `gorm:"type:decimal(12,2);not null" json:"current_balance"`               // remaining value
	Currency        string         `gorm:"type:varchar(8);not null;default:'GBP'" json:"currency"`           // ISO 4217
	Status          string         `gorm:"type:varchar(24);index;not null;default:'pending'" json:"status"`  // pending/active/depleted/expired/cancelled
	Source          string         `gorm:"type:varchar(24);not null;default:'purchase'" json:"source"`       // purchase / promotional
	PurchaserEmail  string         `gorm:"type:varchar(255);index;not null" json:"purchaser_email"`          // buyer email
	PurchaserName   string         `gorm:"type:varchar(120);not null;default:''" json:"purchaser_name"`      // buyer name
	RecipientEmail  string         `gorm:"type:varchar(255)" json:"recipient_email,omitempty"`               // optional recipient
	RecipientName   string         `gorm:"type:varchar(120)" json:"recipient_name,omitempty"`                // optional recipient
	PersonalMessage string         `gorm:"type:text" json:"personal_message,omitempty"`                      // optional message
	IsSent          bool           `gorm:"not null;default:false" json:"is_sent"`                            // delivery acknowledged by admin
	ActivatedAt     *time.Time     `gorm:"index" json:"activated_at"`                                        // pending -> active time
	ExpiresAt       *time.Time     `gorm:"index" json:"expires_at"`                                          // typically created_at + 1 year
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                          // creation time
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                          // update time
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                   // soft delete

	Transactions []GiftCardTransaction `gorm:"foreignKey:GiftCardID" json:"transactions,omitempty"` // ledger rows
}

// TableName sets the table name.
func (GiftCard) TableName() string {
	return "gift_cards"
}

// IsExpired reports whether the card is past its expiry at the given time.
func (g *GiftCard) IsExpired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// Redeemable reports whether the card can accept a debit at the given time.
func (g *GiftCard) Redeemable(now time.Time) bool {
	return g.Status == constants.GiftCardStatusActive && !g.IsExpired(now)
}
