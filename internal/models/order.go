package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// OrderItem is the product snapshot embedded in an order. Orders never
// reference the catalog; edits to products cannot rewrite history.
type OrderItem struct {
	ProductID      uint   `json:"product_id"`            // catalog id at purchase time
	Title          string `json:"title"`                 // product title snapshot
	UnitPriceMinor int64  `json:"unit_price_minor"`      // unit price in pence
	Quantity       int    `json:"quantity"`              // 1..10
	Variation      string `json:"variation,omitempty"`   // optional variation label
	Color          string `json:"color,omitempty"`       // optional colour label
}

// OrderItems persists the snapshot as a JSON column.
type OrderItems []OrderItem

// Value implements driver.Valuer.
func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return json.Marshal(OrderItems{})
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner.
func (items *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*items = OrderItems{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	}
	return errors.New("unsupported order items column type")
}

// Order is the persisted result of a settled (or pending) purchase.
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                                  // primary key
	OrderNumber        string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`             // PP-YYYYMMDD-NNNN or FS-XXXXXX
	Status             string         `gorm:"type:varchar(24);index;not null;default:'pending'" json:"status"`       // status machine state
	Currency           string         `gorm:"type:varchar(8);not null;default:'GBP'" json:"currency"`                // ISO 4217
	Items              OrderItems     `gorm:"type:json;not null" json:"items"`                                       // product snapshot
	Subtotal           Money          `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`                 // sum of line totals
	DiscountCode       string         `gorm:"type:varchar(64);index" json:"discount_code,omitempty"`                 // applied code, if any
	DiscountAmount     Money          `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`          // discount in pounds
	GiftCardCode       string         `gorm:"type:varchar(32);index" json:"gift_card_code,omitempty"`                // redeemed card, if any
	GiftCardAmount     Money          `gorm:"type:decimal(12,2);not null;default:0" json:"gift_card_amount"`         // redeemed amount
	Shipping           Money          `gorm:"type:decimal(12,2);not null;default:0" json:"shipping"`                 // shipping charge
	Total              Money          `gorm:"type:decimal(12,2);not null;default:0" json:"total"`                    // captured amount
	PaymentMethod      string         `gorm:"type:varchar(16);index;not null" json:"payment_method"`                 // card / wallet / gift_card
	PaymentReference   string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"payment_reference"`       // processor session / capture id
	CustomerEmail      string         `gorm:"type:varchar(255);index;not null" json:"customer_email"`                // plaintext, used for lookups
	CustomerName       string         `gorm:"type:varchar(120);not null" json:"customer_name"`                       // plaintext
	CustomerPhone      string         `gorm:"type:varchar(512)" json:"customer_phone,omitempty"`                     // encrypted at rest
	ShippingAddress    string         `gorm:"type:text" json:"shipping_address,omitempty"`                           // encrypted at rest
	Notes              string         `gorm:"type:text" json:"notes,omitempty"`                                      // admin notes
	TrackingNumber     string         `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`                     // carrier tracking id
	TrackingURL        string         `gorm:"type:varchar(500)" json:"tracking_url,omitempty"`                       // carrier tracking link
	Carrier            string         `gorm:"type:varchar(64)" json:"carrier,omitempty"`                             // carrier name
	PaidAt             *time.Time     `gorm:"index" json:"paid_at"`                                                  // settlement time
	ShippedAt          *time.Time     `json:"shipped_at"`                                                            // shipping time
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                               // creation time
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                               // update time
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                        // soft delete
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
