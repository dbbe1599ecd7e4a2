package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
	"github.com/quirkcart/quirkcart/internal/service"
)

// ListDiscounts returns discount codes filtered by query parameters.
func (h *Handler) ListDiscounts(c *gin.Context) {
	page, pageSize := shared.PageParams(c)
	filter := repository.DiscountCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
		Type:     strings.TrimSpace(c.Query("type")),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}
	codes, total, err := h.DiscountService.ListDiscountCodes(filter)
	if err != nil {
		shared.RespondMapped(c, err, shared.DiscountErrorRules)
		return
	}
	response.OKList(c, codes, page, pageSize, total)
}

// GetDiscount returns one discount code by id.
func (h *Handler) GetDiscount(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid discount id")
		return
	}
	code, err := h.DiscountService.GetDiscountCode(id)
	if err != nil {
		shared.RespondMapped(c, err, shared.DiscountErrorRules)
		return
	}
	response.OK(c, code)
}

// CreateDiscountRequest creates a code. Monetary fields arrive in
// pounds; percentage values are whole percents.
type CreateDiscountRequest struct {
	Code           string     `json:"code" binding:"required"`
	Name           string     `json:"name"`
	Type           string     `json:"type" binding:"required"`
	Value          float64    `json:"value"`
	MinOrderAmount float64    `json:"min_order_amount"`
	MaxUses        int        `json:"max_uses"`
	MaxUsesPerUser int        `json:"max_uses_per_customer"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       *bool      `json:"is_active"`
}

// CreateDiscount creates a discount code.
func (h *Handler) CreateDiscount(c *gin.Context) {
	var req CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code and type are required")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	value := int64(req.Value)
	if req.Type == constants.DiscountTypeFixed {
		// fixed discounts are quoted in pounds on the wire
		value = shared.MinorFromPounds(req.Value)
	}
	code, err := h.DiscountService.CreateDiscountCode(service.CreateDiscountCodeInput{
		Code:           req.Code,
		Name:           req.Name,
		Type:           req.Type,
		Value:          value,
		MinOrderMinor:  shared.MinorFromPounds(req.MinOrderAmount),
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       active,
	})
	if err != nil {
		shared.RespondMapped(c, err, shared.DiscountErrorRules)
		return
	}
	h.recordDiscountAudit(c, constants.AuditActionDiscountCodeCreated, code.ID, models.JSON{"code": code.Code, "type": code.Type})
	response.Created(c, code)
}

// UpdateDiscountRequest updates a code; nil fields stay untouched. The
// code string and type are immutable.
type UpdateDiscountRequest struct {
	Name *string `json:"name"`
	// Value is whole percents for percentage codes and pence for
	// fixed codes.
	Value          *int64     `json:"value"`
	MinOrderAmount *float64   `json:"min_order_amount"`
	MaxUses        *int       `json:"max_uses"`
	MaxUsesPerUser *int       `json:"max_uses_per_customer"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ClearExpiresAt bool       `json:"clear_expires_at"`
	IsActive       *bool      `json:"is_active"`
}

// UpdateDiscount updates a discount code.
func (h *Handler) UpdateDiscount(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid discount id")
		return
	}
	var req UpdateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	input := service.UpdateDiscountCodeInput{
		Name:           req.Name,
		Value:          req.Value,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiresAt: req.ClearExpiresAt,
		IsActive:       req.IsActive,
	}
	if req.MinOrderAmount != nil {
		minor := shared.MinorFromPounds(*req.MinOrderAmount)
		input.MinOrderMinor = &minor
	}
	code, err := h.DiscountService.UpdateDiscountCode(id, input)
	if err != nil {
		shared.RespondMapped(c, err, shared.DiscountErrorRules)
		return
	}
	h.recordDiscountAudit(c, constants.AuditActionDiscountCodeUpdated, code.ID, models.JSON{"code": code.Code})
	response.OK(c, code)
}

// DeactivateDiscount turns a code off. Rows are never deleted; history
// stays reconstructable.
func (h *Handler) DeactivateDiscount(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid discount id")
		return
	}
	inactive := false
	code, err := h.DiscountService.UpdateDiscountCode(id, service.UpdateDiscountCodeInput{IsActive: &inactive})
	if err != nil {
		shared.RespondMapped(c, err, shared.DiscountErrorRules)
		return
	}
	h.recordDiscountAudit(c, constants.AuditActionDiscountCodeDeleted, code.ID, models.JSON{"code": code.Code})
	response.OK(c, code)
}

func (h *Handler) recordDiscountAudit(c *gin.Context, action string, codeID uint, details models.JSON) {
	if h.AuditService == nil {
		return
	}
	adminID, adminEmail := principal(c)
	h.AuditService.Record(service.AuditEntry{
		Action:         action,
		PrincipalID:    &adminID,
		PrincipalEmail: adminEmail,
		ResourceType:   "discount_code",
		ResourceID:     fmt.Sprintf("%d", codeID),
		IP:             c.ClientIP(),
		RequestID:      c.GetString("request_id"),
		Details:        details,
	})
}
