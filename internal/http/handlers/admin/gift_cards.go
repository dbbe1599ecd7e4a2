package admin

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
	"github.com/quirkcart/quirkcart/internal/service"
)

// ListGiftCards returns gift cards filtered by query parameters.
func (h *Handler) ListGiftCards(c *gin.Context) {
	page, pageSize := shared.PageParams(c)
	filter := repository.GiftCardListFilter{
		Page:           page,
		PageSize:       pageSize,
		Code:           strings.TrimSpace(c.Query("code")),
		Status:         strings.TrimSpace(c.Query("status")),
		Source:         strings.TrimSpace(c.Query("source")),
		PurchaserEmail: strings.ToLower(strings.TrimSpace(c.Query("purchaser_email"))),
	}
	cards, total, err := h.GiftCardService.ListGiftCards(filter)
	if err != nil {
		shared.RespondMapped(c, err, shared.GiftCardErrorRules)
		return
	}
	response.OKList(c, cards, page, pageSize, total)
}

// GetGiftCard returns one card with its full transaction ledger.
func (h *Handler) GetGiftCard(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid gift card id")
		return
	}
	card, ledger, err := h.GiftCardService.GetGiftCard(id)
	if err != nil {
		shared.RespondMapped(c, err, shared.GiftCardErrorRules)
		return
	}
	response.OK(c, gin.H{"gift_card": card, "transactions": ledger})
}

// CreateGiftCardRequest issues a promotional card. Amount arrives in
// pounds.
type CreateGiftCardRequest struct {
	Amount          float64 `json:"amount" binding:"required"`
	RecipientEmail  string  `json:"recipient_email" binding:"required"`
	RecipientName   string  `json:"recipient_name"`
	PersonalMessage string  `json:"personal_message"`
	Notes           string  `json:"notes"`
}

// CreateGiftCard issues a promotional card, active immediately.
func (h *Handler) CreateGiftCard(c *gin.Context) {
	var req CreateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "amount and recipient_email are required")
		return
	}
	adminID, adminEmail := principal(c)

	card, err := h.GiftCardService.IssueGiftCard(service.IssueGiftCardInput{
		AmountMinor:     shared.MinorFromPounds(req.Amount),
		Source:          constants.GiftCardSourcePromotional,
		PurchaserEmail:  adminEmail,
		PurchaserName:   "promotional issue",
		RecipientEmail:  req.RecipientEmail,
		RecipientName:   req.RecipientName,
		PersonalMessage: req.PersonalMessage,
		Notes:           req.Notes,
	})
	if err != nil {
		shared.RespondMapped(c, err, shared.GiftCardErrorRules)
		return
	}
	h.recordGiftCardAudit(c, constants.AuditActionGiftCardIssued, card.ID, adminID, adminEmail, models.JSON{
		"code":         card.Code,
		"amount_minor": card.InitialBalance.MinorUnits(),
		"source":       card.Source,
	})
	response.Created(c, card)
}

// UpdateGiftCardRequest marks delivery or sets an absolute balance.
type UpdateGiftCardRequest struct {
	MarkSent   bool     `json:"mark_sent"`
	NewBalance *float64 `json:"new_balance"`
	Notes      string   `json:"notes"`
}

// UpdateGiftCard applies admin mutations. Balance changes demand notes
// and record a signed adjustment in the ledger.
func (h *Handler) UpdateGiftCard(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid gift card id")
		return
	}
	var req UpdateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	if !req.MarkSent && req.NewBalance == nil {
		response.BadRequest(c, "nothing to update")
		return
	}
	adminID, adminEmail := principal(c)

	var card *models.GiftCard
	var err error
	if req.NewBalance != nil {
		card, err = h.GiftCardService.AdjustBalance(id, service.AdjustGiftCardInput{
			NewBalanceMinor: shared.MinorFromPounds(*req.NewBalance),
			Notes:           req.Notes,
		})
		if err != nil {
			shared.RespondMapped(c, err, shared.GiftCardErrorRules)
			return
		}
		h.recordGiftCardAudit(c, constants.AuditActionGiftCardAdjusted, card.ID, adminID, adminEmail, models.JSON{
			"new_balance_minor": card.CurrentBalance.MinorUnits(),
			"notes":             req.Notes,
		})
	}
	if req.MarkSent {
		card, err = h.GiftCardService.MarkSent(id)
		if err != nil {
			shared.RespondMapped(c, err, shared.GiftCardErrorRules)
			return
		}
		h.recordGiftCardAudit(c, constants.AuditActionGiftCardMarkedSent, card.ID, adminID, adminEmail, nil)
	}
	response.OK(c, card)
}

// CancelGiftCard cancels a card and zeroes its balance.
func (h *Handler) CancelGiftCard(c *gin.Context) {
	id, ok := shared.IDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid gift card id")
		return
	}
	notes := strings.TrimSpace(c.Query("notes"))
	adminID, adminEmail := principal(c)

	card, err := h.GiftCardService.Cancel(id, notes)
	if err != nil {
		shared.RespondMapped(c, err, shared.GiftCardErrorRules)
		return
	}
	h.recordGiftCardAudit(c, constants.AuditActionGiftCardCancelled, card.ID, adminID, adminEmail, models.JSON{"notes": notes})
	response.OK(c, card)
}

func (h *Handler) recordGiftCardAudit(c *gin.Context, action string, cardID, adminID uint, adminEmail string, details models.JSON) {
	if h.AuditService == nil {
		return
	}
	h.AuditService.Record(service.AuditEntry{
		Action:         action,
		PrincipalID:    &adminID,
		PrincipalEmail: adminEmail,
		ResourceType:   "gift_card",
		ResourceID:     fmt.Sprintf("%d", cardID),
		IP:             c.ClientIP(),
		RequestID:      c.GetString("request_id"),
		Details:        details,
	})
}
