package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer is a shopper identified by email through magic-link login.
// There is no password; possession of the mailbox is the credential.
type Customer struct {
	ID          uint           `gorm:"primarykey" json:"id"`              // primary key
	Email       string         `gorm:"uniqueIndex;not null" json:"email"` // login identity
	Name        string         `gorm:"type:varchar(120);default:''" json:"name"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Customer) TableName() string {
	return "customers"
}
