package admin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/repository"
)

// ListAuditLogs returns audit events, newest first.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := shared.PageParams(c)
	filter := repository.AuditLogListFilter{
		Page:         page,
		PageSize:     pageSize,
		Action:       strings.TrimSpace(c.Query("action")),
		ResourceType: strings.TrimSpace(c.Query("resource_type")),
		ResourceID:   strings.TrimSpace(c.Query("resource_id")),
	}
	if from, ok := parseDate(c.Query("created_from")); ok {
		filter.CreatedFrom = from
	}
	if to, ok := parseDate(c.Query("created_to")); ok {
		filter.CreatedTo = to
	}
	logs, total, err := h.AuditService.List(filter)
	if err != nil {
		response.Internal(c, "audit log query failed")
		return
	}
	response.OKList(c, logs, page, pageSize, total)
}
