package constants

// Order status constants
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment method constants
const (
	PaymentMethodCard     = "card"
	PaymentMethodWallet   = "wallet"
	PaymentMethodGiftCard = "gift_card"
)

// Gift card status constants
const (
	GiftCardStatusPending   = "pending"
	GiftCardStatusActive    = "active"
	GiftCardStatusDepleted  = "depleted"
	GiftCardStatusExpired   = "expired"
	GiftCardStatusCancelled = "cancelled"
)

// Gift card source constants
const (
	GiftCardSourcePurchase    = "purchase"
	GiftCardSourcePromotional = "promotional"
)

// Gift card transaction type constants
const (
	GiftCardTxnTypeIssue      = "issue"
	GiftCardTxnTypeRedemption = "redemption"
	GiftCardTxnTypeRefund     = "refund"
	GiftCardTxnTypeAdjustment = "adjustment"
)

// Discount type constants
const (
	DiscountTypePercentage   = "percentage"
	DiscountTypeFixed        = "fixed"
	DiscountTypeFreeDelivery = "free_delivery"
)

// Admin role constants
const (
	RoleSuperAdmin         = "super_admin"
	RoleBusinessProcessing = "business_processing"
	RoleWebsiteAdmin       = "website_admin"
	RoleCustomer           = "customer"
)

// Notification event constants
const (
	NotifyEventOrderConfirmation  = "order_confirmation"
	NotifyEventShipping           = "shipping"
	NotifyEventGiftCardDelivery   = "gift_card_delivery"
	NotifyEventMagicLink          = "magic_link"
	NotifyEventAdminPasswordReset = "admin_password_reset"
	NotifyEventNewsletterWelcome  = "newsletter_welcome"
	NotifyEventMarketing          = "marketing"
)

// Audit action constants
const (
	AuditActionOrderStatusChange   = "order_status_change"
	AuditActionAmountMismatch      = "settlement_amount_mismatch"
	AuditActionDiscountInvalidLate = "discount_invalid_at_settlement"
	AuditActionGiftCardIssued      = "gift_card_issued"
	AuditActionGiftCardAdjusted    = "gift_card_adjusted"
	AuditActionGiftCardCancelled   = "gift_card_cancelled"
	AuditActionGiftCardMarkedSent  = "gift_card_marked_sent"
	AuditActionGiftCardCompensated = "gift_card_redemption_compensated"
	AuditActionDiscountCodeCreated = "discount_code_created"
	AuditActionDiscountCodeUpdated = "discount_code_updated"
	AuditActionDiscountCodeDeleted = "discount_code_deleted"
	AuditActionAdminLogin          = "admin_login"
	AuditActionAdminPasswordReset  = "admin_password_reset"
)

// Order number namespace constants
const (
	OrderNumberPrefixCard     = "PP"
	OrderNumberPrefixGiftCard = "FS"
)

// Gift card code alphabet excludes 0, O, 1 and I.
const (
	GiftCardCodePrefix   = "GC"
	GiftCardCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Queue constants
const (
	QueueDefault       = "default"
	QueueCritical      = "critical"
	TaskNotifyDispatch = "notify:dispatch"
	TaskGiftCardExpire = "gift_card:expire_sweep"
)

// Cache prefix default
const (
	RedisPrefixDefault = "qc"
)

// Currency default (minor unit = 1/100)
const (
	SiteCurrencyDefault = "GBP"
)
