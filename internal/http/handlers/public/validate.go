package public

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
)

// ValidateDiscountRequest price-checks a discount code. Subtotal
// arrives in pounds.
type ValidateDiscountRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"required"`
}

// ValidateDiscountResponse mirrors the storefront price preview.
type ValidateDiscountResponse struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code"`
	Name           string  `json:"name,omitempty"`
	DiscountType   string  `json:"discount_type"`
	DiscountValue  int64   `json:"discount_value"`
	DiscountAmount float64 `json:"discount_amount"`
	MinOrderAmount float64 `json:"min_order_amount,omitempty"`
	Message        string  `json:"message"`
}

// ValidateDiscount price-checks a code against a cart subtotal without
// consuming a use.
func (h *Handler) ValidateDiscount(c *gin.Context) {
	var req ValidateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code and subtotal are required")
		return
	}

	subtotalMinor := shared.MinorFromPounds(req.Subtotal)
	if subtotalMinor <= 0 {
		response.BadRequest(c, "subtotal must be positive")
		return
	}

	eval, err := h.DiscountService.Evaluate(req.Code, subtotalMinor, time.Now())
	if err != nil {
		shared.RespondMapped(c, err, shared.DiscountErrorRules)
		return
	}

	resp := ValidateDiscountResponse{
		Valid:          true,
		Code:           eval.Code.Code,
		Name:           eval.Code.Name,
		DiscountType:   eval.Code.Type,
		DiscountValue:  eval.Code.Value,
		DiscountAmount: shared.PoundsFromMinor(eval.DiscountMinor),
		Message:        "discount applied",
	}
	if min := eval.Code.MinOrderAmount.MinorUnits(); min > 0 {
		resp.MinOrderAmount = shared.PoundsFromMinor(min)
	}
	if eval.FreeDelivery {
		resp.Message = "free delivery applied"
	}
	response.OK(c, resp)
}

// ValidateGiftCardRequest price-checks a gift card against a subtotal.
type ValidateGiftCardRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal"`
}

// ValidateGiftCardResponse reports how much of the order the card
// covers.
type ValidateGiftCardResponse struct {
	Valid             bool    `json:"valid"`
	Code              string  `json:"code"`
	Balance           float64 `json:"balance"`
	ApplicableAmount  float64 `json:"applicable_amount"`
	RemainingAfterUse float64 `json:"remaining_after_use"`
	CoversFullOrder   bool    `json:"covers_full_order"`
	Message           string  `json:"message"`
}

// ValidateGiftCard checks redeemability and projects the split between
// card balance and residual payment. Nothing is debited here.
func (h *Handler) ValidateGiftCard(c *gin.Context) {
	var req ValidateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code is required")
		return
	}

	card, err := h.GiftCardService.Validate(req.Code)
	if err != nil {
		shared.RespondMapped(c, err, shared.GiftCardErrorRules)
		return
	}

	balanceMinor := card.CurrentBalance.MinorUnits()
	subtotalMinor := shared.MinorFromPounds(req.Subtotal)
	applicable := balanceMinor
	if subtotalMinor > 0 && subtotalMinor < applicable {
		applicable = subtotalMinor
	}

	resp := ValidateGiftCardResponse{
		Valid:             true,
		Code:              card.Code,
		Balance:           shared.PoundsFromMinor(balanceMinor),
		ApplicableAmount:  shared.PoundsFromMinor(applicable),
		RemainingAfterUse: shared.PoundsFromMinor(balanceMinor - applicable),
		CoversFullOrder:   subtotalMinor > 0 && balanceMinor >= subtotalMinor,
		Message:           "gift card is valid",
	}
	response.OK(c, resp)
}
