package shared

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/service"
)

// ErrorRule maps a sentinel error to an HTTP status and message.
type ErrorRule struct {
	Target  error
	Status  int
	Message string
}

// RespondMapped walks the rules and writes the first match; unmatched
// errors become a logged 500 with a generic body.
func RespondMapped(c *gin.Context, err error, rules []ErrorRule) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			response.Error(c, rule.Status, rule.Message)
			return
		}
	}
	logger.Errorw("request_failed", "path", c.FullPath(), "error", err)
	response.Internal(c, "internal error")
}

// ConcatRules joins rule groups in precedence order.
func ConcatRules(groups ...[]ErrorRule) []ErrorRule {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]ErrorRule, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// DiscountErrorRules covers discount evaluation failures.
var DiscountErrorRules = []ErrorRule{
	{Target: service.ErrDiscountNotFound, Status: http.StatusNotFound, Message: "discount code not found"},
	{Target: service.ErrDiscountInactive, Status: http.StatusBadRequest, Message: "discount code is not active"},
	{Target: service.ErrDiscountNotStarted, Status: http.StatusBadRequest, Message: "discount code is not yet valid"},
	{Target: service.ErrDiscountExpired, Status: http.StatusBadRequest, Message: "discount code has expired"},
	{Target: service.ErrDiscountUsageLimit, Status: http.StatusBadRequest, Message: "discount code usage limit reached"},
	{Target: service.ErrDiscountMinAmount, Status: http.StatusBadRequest, Message: "order total is below the discount minimum"},
	{Target: service.ErrDiscountConflict, Status: http.StatusConflict, Message: "discount code is busy, try again"},
	{Target: service.ErrDiscountInvalid, Status: http.StatusBadRequest, Message: "discount code is invalid"},
}

// GiftCardErrorRules covers gift card validation and redemption
// failures.
var GiftCardErrorRules = []ErrorRule{
	{Target: service.ErrGiftCardNotFound, Status: http.StatusNotFound, Message: "gift card not found"},
	{Target: service.ErrGiftCardNotActive, Status: http.StatusBadRequest, Message: "gift card is not active"},
	{Target: service.ErrGiftCardExpired, Status: http.StatusBadRequest, Message: "gift card has expired"},
	{Target: service.ErrGiftCardDepleted, Status: http.StatusBadRequest, Message: "gift card has no remaining balance"},
	{Target: service.ErrGiftCardInsufficient, Status: http.StatusBadRequest, Message: "gift card balance does not cover the order"},
	{Target: service.ErrGiftCardConflict, Status: http.StatusConflict, Message: "gift card is busy, try again"},
	{Target: service.ErrGiftCardCurrencyMismatch, Status: http.StatusBadRequest, Message: "gift card currency does not match"},
	{Target: service.ErrGiftCardInvalid, Status: http.StatusBadRequest, Message: "gift card is invalid"},
}

// CheckoutErrorRules covers checkout initiation and settlement.
var CheckoutErrorRules = []ErrorRule{
	{Target: service.ErrCartEmpty, Status: http.StatusBadRequest, Message: "cart is empty"},
	{Target: service.ErrCheckoutInvalid, Status: http.StatusBadRequest, Message: "checkout request is invalid"},
	{Target: service.ErrCurrencyUnsupported, Status: http.StatusBadRequest, Message: "currency is not supported"},
	{Target: service.ErrPaymentMethodInvalid, Status: http.StatusBadRequest, Message: "payment method cannot settle this order"},
	{Target: service.ErrPaymentInitFailed, Status: http.StatusBadGateway, Message: "payment provider is unavailable"},
	{Target: service.ErrPaymentCaptureFailed, Status: http.StatusBadGateway, Message: "payment capture failed"},
	{Target: service.ErrOrderCreateFailed, Status: http.StatusInternalServerError, Message: "order could not be created"},
}

// AuthErrorRules covers login and token failures.
var AuthErrorRules = []ErrorRule{
	{Target: service.ErrCredentialsInvalid, Status: http.StatusUnauthorized, Message: "invalid credentials"},
	{Target: service.ErrTokenInvalid, Status: http.StatusUnauthorized, Message: "invalid or expired token"},
	{Target: service.ErrMagicLinkInvalid, Status: http.StatusUnauthorized, Message: "invalid or expired sign-in link"},
	{Target: service.ErrRateLimited, Status: http.StatusTooManyRequests, Message: "too many attempts, try again later"},
	{Target: service.ErrCaptchaInvalid, Status: http.StatusBadRequest, Message: "captcha verification failed"},
	{Target: service.ErrForbidden, Status: http.StatusForbidden, Message: "forbidden"},
	{Target: service.ErrAdminNotFound, Status: http.StatusNotFound, Message: "admin not found"},
	{Target: service.ErrAdminExists, Status: http.StatusConflict, Message: "admin already exists"},
}

// OrderErrorRules covers order lookups and updates.
var OrderErrorRules = []ErrorRule{
	{Target: service.ErrOrderNotFound, Status: http.StatusNotFound, Message: "order not found"},
	{Target: service.ErrOrderTransitionInvalid, Status: http.StatusBadRequest, Message: "status transition is not allowed"},
	{Target: service.ErrOrderInvalid, Status: http.StatusBadRequest, Message: "order request is invalid"},
	{Target: service.ErrOrderUpdateFailed, Status: http.StatusInternalServerError, Message: "order could not be updated"},
}
