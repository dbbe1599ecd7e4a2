package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCode is a promotion applied to an order subtotal.
type DiscountCode struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                            // primary key
	Code               string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`               // stored uppercase
	Name               string         `gorm:"type:varchar(120);not null;default:''" json:"name"`               // display name
	Type               string         `gorm:"type:varchar(24);not null" json:"type"`                           // percentage / fixed / free_delivery
	Value              int64          `gorm:"not null;default:0" json:"value"`                                 // percent [0,100] or pence
	MinOrderAmount     Money          `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`   // usage threshold (0 = none)
	MaxUses            int            `gorm:"not null;default:0" json:"max_uses"`                              // global cap (0 = unlimited)
	MaxUsesPerCustomer int            `gorm:"not null;default:0" json:"max_uses_per_customer"`                 // per-customer cap (0 = unlimited)
	UseCount           int            `gorm:"not null;default:0" json:"use_count"`                             // monotonically increasing
	StartsAt           *time.Time     `gorm:"index" json:"starts_at"`                                          // activation time
	ExpiresAt          *time.Time     `gorm:"index" json:"expires_at"`                                         // expiry time
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`                          // enabled flag
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                         // creation time
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                         // update time
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                  // soft delete
}

// TableName sets the table name.
func (DiscountCode) TableName() string {
	return "discount_codes"
}
