package public

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/service"
)

// RequestMagicLinkRequest asks for a sign-in email.
type RequestMagicLinkRequest struct {
	Email       string `json:"email" binding:"required"`
	Name        string `json:"name"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// RequestMagicLink sends a sign-in link. The response body is identical
// whether or not the address is known.
func (h *Handler) RequestMagicLink(c *gin.Context) {
	var req RequestMagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email is required")
		return
	}
	err := h.AuthService.RequestMagicLink(c.Request.Context(), service.RequestMagicLinkInput{
		Email:       req.Email,
		Name:        req.Name,
		CaptchaID:   req.CaptchaID,
		CaptchaCode: req.CaptchaCode,
		IP:          c.ClientIP(),
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrRateLimited), errors.Is(err, service.ErrCaptchaInvalid):
		shared.RespondMapped(c, err, shared.AuthErrorRules)
		return
	default:
		// delivery problems are invisible to the caller
	}
	response.OK(c, gin.H{"success": true, "message": service.MagicLinkResponse})
}

// VerifyMagicLink consumes the token from the emailed link and returns
// a portal token.
func (h *Handler) VerifyMagicLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "token is required")
		return
	}
	signed, customer, err := h.AuthService.VerifyMagicLink(c.Request.Context(), token)
	if err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules)
		return
	}
	response.OK(c, gin.H{
		"success": true,
		"token":   signed,
		"email":   customer.Email,
	})
}

// CustomerOrders lists the authenticated customer's orders.
func (h *Handler) CustomerOrders(c *gin.Context) {
	email, ok := customerEmail(c)
	if !ok {
		response.Unauthorized(c, "sign in required")
		return
	}
	page, pageSize := shared.PageParams(c)
	orders, total, err := h.OrderService.ListCustomerOrders(email, page, pageSize)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules)
		return
	}
	response.OKList(c, orders, page, pageSize, total)
}

// CustomerOrder fetches one of the authenticated customer's orders by
// order number. The email scope keeps strangers out.
func (h *Handler) CustomerOrder(c *gin.Context) {
	email, ok := customerEmail(c)
	if !ok {
		response.Unauthorized(c, "sign in required")
		return
	}
	orderNumber := c.Param("order_number")
	order, err := h.OrderService.GetOrderByNumber(orderNumber, email)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules)
		return
	}
	response.OK(c, order)
}

func customerEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get("customer_email")
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	return email, ok && email != ""
}
