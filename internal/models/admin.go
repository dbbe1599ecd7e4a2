package models

import (
	"time"

	"gorm.io/gorm"
)

// AdminUser is a back-office principal. Role determines the capability set
// enforced by the authorization layer.
type AdminUser struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                                // primary key
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`                                   // login identity
	PasswordHash       string         `gorm:"not null" json:"-"`                                                   // bcrypt hash, never serialized
	Role               string         `gorm:"type:varchar(32);index;not null;default:'website_admin'" json:"role"` // super_admin / business_processing / website_admin
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                                         // bump to invalidate outstanding tokens
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                                      // tokens issued before this are rejected
	LastLoginAt        *time.Time     `json:"last_login_at"`                                                       // last successful login
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                             // creation time
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                      // soft delete
}

// TableName sets the table name.
func (AdminUser) TableName() string {
	return "admin_users"
}
