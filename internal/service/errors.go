package service

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP statuses with errors.Is, so wrap rather than replace them.
var (
	// checkout and quoting
	ErrCheckoutInvalid       = errors.New("checkout input invalid")
	ErrCartEmpty             = errors.New("cart is empty")
	ErrCurrencyUnsupported   = errors.New("currency not supported")
	ErrAmountMismatch        = errors.New("captured amount does not match order total")
	ErrPaymentInitFailed     = errors.New("payment initiation failed")
	ErrPaymentCaptureFailed  = errors.New("payment capture failed")
	ErrPaymentMethodInvalid  = errors.New("payment method invalid")
	ErrWebhookInvalid        = errors.New("webhook payload invalid")
	ErrWebhookSignatureStale = errors.New("webhook signature invalid or stale")

	// orders
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderFetchFailed       = errors.New("order fetch failed")
	ErrOrderCreateFailed      = errors.New("order create failed")
	ErrOrderUpdateFailed      = errors.New("order update failed")
	ErrOrderTransitionInvalid = errors.New("order status transition invalid")
	ErrOrderInvalid           = errors.New("order input invalid")

	// discount codes
	ErrDiscountNotFound     = errors.New("discount code not found")
	ErrDiscountInvalid      = errors.New("discount code invalid")
	ErrDiscountInactive     = errors.New("discount code inactive")
	ErrDiscountNotStarted   = errors.New("discount code not started")
	ErrDiscountExpired      = errors.New("discount code expired")
	ErrDiscountUsageLimit   = errors.New("discount code usage limit reached")
	ErrDiscountMinAmount    = errors.New("order below discount minimum amount")
	ErrDiscountConflict     = errors.New("discount code usage conflict")
	ErrDiscountFetchFailed  = errors.New("discount code fetch failed")
	ErrDiscountCreateFailed = errors.New("discount code create failed")
	ErrDiscountUpdateFailed = errors.New("discount code update failed")

	// gift cards
	ErrGiftCardNotFound         = errors.New("gift card not found")
	ErrGiftCardInvalid          = errors.New("gift card input invalid")
	ErrGiftCardNotActive        = errors.New("gift card not redeemable")
	ErrGiftCardExpired          = errors.New("gift card expired")
	ErrGiftCardDepleted         = errors.New("gift card depleted")
	ErrGiftCardInsufficient     = errors.New("gift card balance insufficient")
	ErrGiftCardConflict         = errors.New("gift card balance conflict")
	ErrGiftCardCurrencyMismatch = errors.New("gift card currency mismatch")
	ErrGiftCardFetchFailed      = errors.New("gift card fetch failed")
	ErrGiftCardCreateFailed     = errors.New("gift card create failed")
	ErrGiftCardUpdateFailed     = errors.New("gift card update failed")

	// authentication
	ErrCredentialsInvalid = errors.New("credentials invalid")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrMagicLinkInvalid   = errors.New("magic link token invalid or used")
	ErrRateLimited        = errors.New("too many requests")
	ErrCaptchaInvalid     = errors.New("captcha answer invalid")
	ErrAdminNotFound      = errors.New("admin user not found")
	ErrAdminExists        = errors.New("admin user already exists")
	ErrForbidden          = errors.New("operation not permitted")

	// notifications
	ErrNotifierDisabled   = errors.New("notifier disabled")
	ErrNotifyEventUnknown = errors.New("notification event unknown")
	ErrNotifySendFailed   = errors.New("notification send failed")
)
