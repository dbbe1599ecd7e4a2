package service

import (
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
)

const discountConsumeMaxRetries = 3

// DiscountService evaluates and administers discount codes.
type DiscountService struct {
	repo repository.DiscountCodeRepository
}

// NewDiscountService creates the discount service.
func NewDiscountService(repo repository.DiscountCodeRepository) *DiscountService {
	return &DiscountService{repo: repo}
}

// DiscountEvaluation is the outcome of applying a code to a subtotal.
// FreeDelivery signals the quote to zero the shipping line instead of
// reducing the subtotal.
type DiscountEvaluation struct {
	Code          *models.DiscountCode
	DiscountMinor int64
	FreeDelivery  bool
}

// CreateDiscountCodeInput is the admin create payload.
type CreateDiscountCodeInput struct {
	Code           string
	Name           string
	Type           string
	Value          int64
	MinOrderMinor  int64
	MaxUses        int
	MaxUsesPerUser int
	StartsAt       *time.Time
	ExpiresAt      *time.Time
	IsActive       bool
}

// UpdateDiscountCodeInput is the admin update payload. Nil fields are
// left unchanged.
type UpdateDiscountCodeInput struct {
	Name           *string
	Value          *int64
	MinOrderMinor  *int64
	MaxUses        *int
	MaxUsesPerUser *int
	StartsAt       *time.Time
	ExpiresAt      *time.Time
	ClearExpiresAt bool
	IsActive       *bool
}

// Evaluate applies a code to an order subtotal at a point in time.
// Subtotal is in minor units. Every rejection returns a distinct
// sentinel so the storefront can explain why the code failed.
func (s *DiscountService) Evaluate(code string, subtotalMinor int64, now time.Time) (*DiscountEvaluation, error) {
	if s == nil || s.repo == nil {
		return nil, ErrDiscountFetchFailed
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrDiscountInvalid
	}

	dc, err := s.repo.GetByCode(trimmed)
	if err != nil {
		return nil, ErrDiscountFetchFailed
	}
	if dc == nil {
		return nil, ErrDiscountNotFound
	}
	if !dc.IsActive {
		return nil, ErrDiscountInactive
	}
	if dc.StartsAt != nil && now.Before(*dc.StartsAt) {
		return nil, ErrDiscountNotStarted
	}
	// the expiry instant itself is already expired
	if dc.ExpiresAt != nil && !now.Before(*dc.ExpiresAt) {
		return nil, ErrDiscountExpired
	}
	if dc.MaxUses > 0 && dc.UseCount >= dc.MaxUses {
		return nil, ErrDiscountUsageLimit
	}
	if minMinor := dc.MinOrderAmount.MinorUnits(); minMinor > 0 && subtotalMinor < minMinor {
		return nil, ErrDiscountMinAmount
	}

	eval := &DiscountEvaluation{Code: dc}
	switch dc.Type {
	case constants.DiscountTypePercentage:
		// zero percent is a legal no-op adjustment
		if dc.Value < 0 || dc.Value > 100 {
			return nil, ErrDiscountInvalid
		}
		eval.DiscountMinor = models.MulPctMinor(subtotalMinor, dc.Value)
	case constants.DiscountTypeFixed:
		if dc.Value <= 0 {
			return nil, ErrDiscountInvalid
		}
		// a fixed code never pushes the total negative
		eval.DiscountMinor = models.MinMinor(dc.Value, subtotalMinor)
	case constants.DiscountTypeFreeDelivery:
		eval.FreeDelivery = true
	default:
		return nil, ErrDiscountInvalid
	}
	return eval, nil
}

// ConsumeUse bumps the code's use counter. The bump is compare-and-swap
// on the counter it last read; a lost race re-reads and retries, and
// after the retry budget the caller sees a transient conflict.
func (s *DiscountService) ConsumeUse(codeID uint) error {
	if s == nil || s.repo == nil {
		return ErrDiscountUpdateFailed
	}
	for attempt := 0; attempt < discountConsumeMaxRetries; attempt++ {
		dc, err := s.repo.GetByID(codeID)
		if err != nil {
			return ErrDiscountFetchFailed
		}
		if dc == nil {
			return ErrDiscountNotFound
		}
		if dc.MaxUses > 0 && dc.UseCount >= dc.MaxUses {
			return ErrDiscountUsageLimit
		}
		swapped, err := s.repo.IncrementUseCountCAS(codeID, dc.UseCount)
		if err != nil {
			return ErrDiscountUpdateFailed
		}
		if swapped {
			return nil
		}
	}
	return ErrDiscountConflict
}

// CreateDiscountCode creates a code from the admin surface.
func (s *DiscountService) CreateDiscountCode(input CreateDiscountCodeInput) (*models.DiscountCode, error) {
	if s == nil || s.repo == nil {
		return nil, ErrDiscountCreateFailed
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, ErrDiscountInvalid
	}
	if err := validateDiscountTypeValue(input.Type, input.Value); err != nil {
		return nil, err
	}
	if input.MinOrderMinor < 0 || input.MaxUses < 0 || input.MaxUsesPerUser < 0 {
		return nil, ErrDiscountInvalid
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && input.ExpiresAt.Before(*input.StartsAt) {
		return nil, ErrDiscountInvalid
	}

	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, ErrDiscountFetchFailed
	}
	if existing != nil {
		return nil, ErrDiscountInvalid
	}

	now := time.Now()
	dc := &models.DiscountCode{
		Code:               code,
		Name:               name,
		Type:               strings.ToLower(strings.TrimSpace(input.Type)),
		Value:              input.Value,
		MinOrderAmount:     models.MoneyFromMinor(input.MinOrderMinor),
		MaxUses:            input.MaxUses,
		MaxUsesPerCustomer: input.MaxUsesPerUser,
		StartsAt:           input.StartsAt,
		ExpiresAt:          input.ExpiresAt,
		IsActive:           input.IsActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(dc); err != nil {
		return nil, ErrDiscountCreateFailed
	}
	return dc, nil
}

// UpdateDiscountCode applies a partial admin update. The code string
// and type are immutable once created.
func (s *DiscountService) UpdateDiscountCode(id uint, input UpdateDiscountCodeInput) (*models.DiscountCode, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrDiscountInvalid
	}
	dc, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrDiscountFetchFailed
	}
	if dc == nil {
		return nil, ErrDiscountNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrDiscountInvalid
		}
		dc.Name = name
	}
	if input.Value != nil {
		if err := validateDiscountTypeValue(dc.Type, *input.Value); err != nil {
			return nil, err
		}
		dc.Value = *input.Value
	}
	if input.MinOrderMinor != nil {
		if *input.MinOrderMinor < 0 {
			return nil, ErrDiscountInvalid
		}
		dc.MinOrderAmount = models.MoneyFromMinor(*input.MinOrderMinor)
	}
	if input.MaxUses != nil {
		if *input.MaxUses < 0 {
			return nil, ErrDiscountInvalid
		}
		dc.MaxUses = *input.MaxUses
	}
	if input.MaxUsesPerUser != nil {
		if *input.MaxUsesPerUser < 0 {
			return nil, ErrDiscountInvalid
		}
		dc.MaxUsesPerCustomer = *input.MaxUsesPerUser
	}
	if input.StartsAt != nil {
		dc.StartsAt = input.StartsAt
	}
	if input.ClearExpiresAt {
		dc.ExpiresAt = nil
	} else if input.ExpiresAt != nil {
		dc.ExpiresAt = input.ExpiresAt
	}
	if input.IsActive != nil {
		dc.IsActive = *input.IsActive
	}
	dc.UpdatedAt = time.Now()
	if err := s.repo.Update(dc); err != nil {
		return nil, ErrDiscountUpdateFailed
	}
	return dc, nil
}

// GetDiscountCode fetches one code for the admin surface.
func (s *DiscountService) GetDiscountCode(id uint) (*models.DiscountCode, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrDiscountInvalid
	}
	dc, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrDiscountFetchFailed
	}
	if dc == nil {
		return nil, ErrDiscountNotFound
	}
	return dc, nil
}

// ListDiscountCodes lists codes for the admin surface.
func (s *DiscountService) ListDiscountCodes(filter repository.DiscountCodeListFilter) ([]models.DiscountCode, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrDiscountFetchFailed
	}
	codes, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrDiscountFetchFailed
	}
	return codes, total, nil
}

func validateDiscountTypeValue(discountType string, value int64) error {
	switch strings.ToLower(strings.TrimSpace(discountType)) {
	case constants.DiscountTypePercentage:
		if value < 0 || value > 100 {
			return ErrDiscountInvalid
		}
	case constants.DiscountTypeFixed:
		if value <= 0 {
			return ErrDiscountInvalid
		}
	case constants.DiscountTypeFreeDelivery:
		if value != 0 {
			return ErrDiscountInvalid
		}
	default:
		return ErrDiscountInvalid
	}
	return nil
}
