package models

import "time"

// AuditLog records admin mutations and settlement anomalies. Append-only;
// a failed write never blocks the primary operation.
type AuditLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Action         string    `gorm:"type:varchar(100);index;not null" json:"action"`
	PrincipalID    *uint     `gorm:"index" json:"principal_id,omitempty"`
	PrincipalEmail string    `gorm:"type:varchar(255);index;not null;default:''" json:"principal_email"`
	ResourceType   string    `gorm:"type:varchar(64);index;not null;default:''" json:"resource_type"`
	ResourceID     string    `gorm:"type:varchar(64);index;not null;default:''" json:"resource_id"`
	Details        JSON      `gorm:"type:json" json:"details"`
	IP             string    `gorm:"type:varchar(64);not null;default:''" json:"ip"`
	UserAgent      string    `gorm:"type:varchar(255);not null;default:''" json:"user_agent"`
	RequestID      string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
