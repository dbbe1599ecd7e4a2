package admin

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/repository"
	"github.com/quirkcart/quirkcart/internal/service"
)

// ListOrders returns orders with decrypted contact detail, filtered by
// query parameters.
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := shared.PageParams(c)
	filter := repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		OrderNumber:   strings.TrimSpace(c.Query("order_number")),
		CustomerEmail: strings.ToLower(strings.TrimSpace(c.Query("customer_email"))),
		PaymentMethod: strings.TrimSpace(c.Query("payment_method")),
	}
	if from, ok := parseDate(c.Query("created_from")); ok {
		filter.CreatedFrom = from
	}
	if to, ok := parseDate(c.Query("created_to")); ok {
		filter.CreatedTo = to
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules)
		return
	}
	response.OKList(c, orders, page, pageSize, total)
}

// GetOrder returns one order by id.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid order id")
		return
	}
	order, err := h.OrderService.GetOrder(id)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules)
		return
	}
	response.OK(c, order)
}

// UpdateOrderRequest mutates status, notes, or tracking in one call.
type UpdateOrderRequest struct {
	ID             uint    `json:"id" binding:"required"`
	Status         *string `json:"status"`
	Notes          *string `json:"notes"`
	TrackingNumber *string `json:"tracking_number"`
	TrackingURL    *string `json:"tracking_url"`
	Carrier        *string `json:"carrier"`
}

// UpdateOrder applies the requested mutations in a fixed order:
// tracking first so a shipped transition emails the final detail, then
// status, then notes.
func (h *Handler) UpdateOrder(c *gin.Context) {
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "order id is required")
		return
	}
	adminID, adminEmail := principal(c)

	order, err := h.OrderService.GetOrder(req.ID)
	if err != nil {
		shared.RespondMapped(c, err, shared.OrderErrorRules)
		return
	}

	if req.TrackingNumber != nil || req.TrackingURL != nil || req.Carrier != nil {
		tracking := service.TrackingInput{}
		if req.TrackingNumber != nil {
			tracking.TrackingNumber = *req.TrackingNumber
		}
		if req.TrackingURL != nil {
			tracking.TrackingURL = *req.TrackingURL
		}
		if req.Carrier != nil {
			tracking.Carrier = *req.Carrier
		}
		if order, err = h.OrderService.SetTracking(req.ID, tracking); err != nil {
			shared.RespondMapped(c, err, shared.OrderErrorRules)
			return
		}
	}

	if req.Status != nil && *req.Status != order.Status {
		order, err = h.OrderService.UpdateStatus(req.ID, service.UpdateStatusInput{
			Status:         *req.Status,
			PrincipalID:    &adminID,
			PrincipalEmail: adminEmail,
			IP:             c.ClientIP(),
			RequestID:      c.GetString("request_id"),
		})
		if err != nil {
			shared.RespondMapped(c, err, shared.OrderErrorRules)
			return
		}
	}

	if req.Notes != nil {
		if order, err = h.OrderService.SetNotes(req.ID, *req.Notes); err != nil {
			shared.RespondMapped(c, err, shared.OrderErrorRules)
			return
		}
	}

	response.OK(c, order)
}

func parseDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	return nil, false
}
