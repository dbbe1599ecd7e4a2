package repository

import "time"

// OrderListFilter filters the order list query.
type OrderListFilter struct {
	Page          int
	PageSize      int
	Limit         int
	Status        string
	OrderNumber   string
	CustomerEmail string
	PaymentMethod string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// DiscountCodeListFilter filters the discount-code list query.
type DiscountCodeListFilter struct {
	Page     int
	PageSize int
	Code     string
	Type     string
	IsActive *bool
}

// GiftCardListFilter filters the gift-card list query.
type GiftCardListFilter struct {
	Page           int
	PageSize       int
	Code           string
	Status         string
	Source         string
	PurchaserEmail string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// AuditLogListFilter filters the audit-log list query.
type AuditLogListFilter struct {
	Page         int
	PageSize     int
	Action       string
	ResourceType string
	ResourceID   string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}
