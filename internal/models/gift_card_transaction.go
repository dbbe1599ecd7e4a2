package models

import "time"

// GiftCardTransaction is an append-only ledger row. Rows are never updated
// or deleted; the repository exposes no mutation beyond Append.
type GiftCardTransaction struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                   // primary key
	GiftCardID     uint      `gorm:"index;not null" json:"gift_card_id"`                     // owning card
	Type           string    `gorm:"type:varchar(24);index;not null" json:"type"`            // issue/redemption/refund/adjustment
	Amount         Money     `gorm:"type:decimal(12,2);not null" json:"amount"`              // signed delta
	BalanceAfter   Money     `gorm:"type:decimal(12,2);not null" json:"balance_after"`       // balance following this row
	OrderReference string    `gorm:"type:varchar(32);index" json:"order_reference,omitempty"` // order number, if any
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`                       // free-form context
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                // creation time
}

// TableName sets the table name.
func (GiftCardTransaction) TableName() string {
	return "gift_card_transactions"
}
