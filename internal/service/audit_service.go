package service

import (
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
)

// AuditService writes the append-only audit trail. Recording is best
// effort: a failed write is logged, never surfaced, because no admin
// action should fail on account of its own audit row.
type AuditService struct {
	repo repository.AuditLogRepository
}

// NewAuditService creates the audit service.
func NewAuditService(repo repository.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// AuditEntry is one recorded event.
type AuditEntry struct {
	Action         string
	PrincipalID    *uint
	PrincipalEmail string
	ResourceType   string
	ResourceID     string
	Details        models.JSON
	IP             string
	UserAgent      string
	RequestID      string
}

// Record appends an audit row.
func (s *AuditService) Record(entry AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return
	}
	row := &models.AuditLog{
		Action:         action,
		PrincipalID:    entry.PrincipalID,
		PrincipalEmail: strings.ToLower(strings.TrimSpace(entry.PrincipalEmail)),
		ResourceType:   strings.TrimSpace(entry.ResourceType),
		ResourceID:     strings.TrimSpace(entry.ResourceID),
		Details:        entry.Details,
		IP:             strings.TrimSpace(entry.IP),
		UserAgent:      strings.TrimSpace(entry.UserAgent),
		RequestID:      strings.TrimSpace(entry.RequestID),
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Append(row); err != nil {
		logger.Errorw("audit_record_failed", "action", action, "resource_type", row.ResourceType, "error", err)
	}
}

// List queries the audit trail for the admin surface.
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(filter)
}
