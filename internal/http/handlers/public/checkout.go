package public

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/service"
)

// maxWebhookBodyBytes bounds the raw webhook read.
const maxWebhookBodyBytes = 1 << 20

// CheckoutItemRequest is one cart line as the storefront sends it.
// Prices arrive in pounds.
type CheckoutItemRequest struct {
	ProductID uint    `json:"id"`
	Title     string  `json:"title" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	Variation string  `json:"variation"`
	Color     string  `json:"color"`
}

// GiftCardPurchaseRequest is a gift card bought inside the cart.
type GiftCardPurchaseRequest struct {
	Amount          float64 `json:"amount" binding:"required"`
	RecipientEmail  string  `json:"recipient_email"`
	RecipientName   string  `json:"recipient_name"`
	PersonalMessage string  `json:"personal_message"`
}

// CheckoutCustomerRequest is the shopper detail block.
type CheckoutCustomerRequest struct {
	Email           string `json:"email" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shipping_address"`
}

// CheckoutRequest is the shared phase-1 payload for both processors.
type CheckoutRequest struct {
	Items             []CheckoutItemRequest     `json:"items"`
	GiftCardPurchases []GiftCardPurchaseRequest `json:"gift_card_purchases"`
	DiscountCode      string                    `json:"discountCode"`
	GiftCardCode      string                    `json:"giftCardCode"`
	GiftCardAmount    float64                   `json:"giftCardAmount"`
	Customer          CheckoutCustomerRequest   `json:"customer" binding:"required"`
}

func (req *CheckoutRequest) toInput() service.CheckoutInput {
	input := service.CheckoutInput{
		DiscountCode:        req.DiscountCode,
		GiftCardCode:        req.GiftCardCode,
		GiftCardAmountMinor: shared.MinorFromPounds(req.GiftCardAmount),
		Customer: service.CheckoutCustomer{
			Email:           req.Customer.Email,
			Name:            req.Customer.Name,
			Phone:           req.Customer.Phone,
			ShippingAddress: req.Customer.ShippingAddress,
		},
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.QuoteItem{
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitPriceMinor: shared.MinorFromPounds(item.Price),
			Quantity:       item.Quantity,
			Variation:      item.Variation,
			Color:          item.Color,
		})
	}
	for _, purchase := range req.GiftCardPurchases {
		input.GiftCardPurchases = append(input.GiftCardPurchases, service.GiftCardPurchase{
			AmountMinor:     shared.MinorFromPounds(purchase.Amount),
			RecipientEmail:  purchase.RecipientEmail,
			RecipientName:   purchase.RecipientName,
			PersonalMessage: purchase.PersonalMessage,
		})
	}
	return input
}

var checkoutErrorRules = shared.ConcatRules(
	shared.CheckoutErrorRules,
	shared.DiscountErrorRules,
	shared.GiftCardErrorRules,
)

// StripeCheckout opens a hosted card-processor session and returns its
// redirect URL.
func (h *Handler) StripeCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "checkout request is invalid")
		return
	}
	result, err := h.CheckoutService.InitiateStripe(c.Request.Context(), req.toInput())
	if err != nil {
		shared.RespondMapped(c, err, checkoutErrorRules)
		return
	}
	response.OK(c, gin.H{"url": result.URL, "session_id": result.SessionID})
}

// PayPalCheckout opens a wallet order and returns its id for approval.
func (h *Handler) PayPalCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "checkout request is invalid")
		return
	}
	result, err := h.CheckoutService.InitiatePayPal(c.Request.Context(), req.toInput())
	if err != nil {
		shared.RespondMapped(c, err, checkoutErrorRules)
		return
	}
	response.OK(c, gin.H{"orderID": result.OrderID})
}

// PayPalCaptureRequest settles an approved wallet order. The cart is
// replayed so the total can be re-derived server-side.
type PayPalCaptureRequest struct {
	OrderID string `json:"orderID" binding:"required"`
	CheckoutRequest
}

// PayPalCapture captures the wallet order and materializes the local
// order. Replays return the already-settled order.
func (h *Handler) PayPalCapture(c *gin.Context) {
	var req PayPalCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "orderID and cart are required")
		return
	}
	result, err := h.CheckoutService.CapturePayPal(c.Request.Context(), req.OrderID, req.toInput())
	if err != nil {
		shared.RespondMapped(c, err, checkoutErrorRules)
		return
	}
	response.OK(c, gin.H{
		"success":      true,
		"order_number": result.Order.OrderNumber,
	})
}

// GiftCardOnlyCheckout settles a cart fully covered by gift-card
// balance, with no external processor involved.
func (h *Handler) GiftCardOnlyCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "checkout request is invalid")
		return
	}
	result, err := h.CheckoutService.SettleGiftCardOnly(req.toInput())
	if err != nil {
		shared.RespondMapped(c, err, checkoutErrorRules)
		return
	}
	response.OK(c, gin.H{
		"success":           true,
		"order_number":      result.Order.OrderNumber,
		"remaining_balance": shared.PoundsFromMinor(result.RemainingBalance),
	})
}

// StripeWebhook settles card payments. The body must stay raw for
// signature verification; gin's binding never touches it.
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}
	headers := map[string]string{
		"Stripe-Signature": c.GetHeader("Stripe-Signature"),
	}
	_, err = h.CheckoutService.SettleStripeWebhook(headers, body)
	if err != nil {
		// signature failures are 400 so the processor retries nothing;
		// balance contention is 409 so it retries the delivery
		shared.RespondMapped(c, err, []shared.ErrorRule{
			{Target: service.ErrWebhookSignatureStale, Status: http.StatusBadRequest, Message: "signature verification failed"},
			{Target: service.ErrWebhookInvalid, Status: http.StatusBadRequest, Message: "webhook payload is invalid"},
			{Target: service.ErrGiftCardConflict, Status: http.StatusConflict, Message: "gift card balance is contended, retry"},
		})
		return
	}
	response.OK(c, gin.H{"received": true})
}
