package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/models"

	"gorm.io/gorm"
)

// GiftCardRepository is the gift-card data access interface.
type GiftCardRepository interface {
	GetByID(id uint) (*models.GiftCard, error)
	GetByCode(code string) (*models.GiftCard, error)
	Create(card *models.GiftCard) error
	Update(card *models.GiftCard) error
	List(filter GiftCardListFilter) ([]models.GiftCard, int64, error)
	DebitBalanceCAS(id uint, expected, updated models.Money, newStatus string) (bool, error)
	CreditBalanceCAS(id uint, expected, updated models.Money, newStatus string) (bool, error)
	ExpireDue(now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftCardRepository
}

// GormGiftCardRepository is the GORM implementation.
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGiftCardRepository creates the repository.
func NewGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormGiftCardRepository) WithTx(tx *gorm.DB) *GormGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardRepository{db: tx}
}

// GetByID fetches a card by id.
func (r *GormGiftCardRepository) GetByID(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCode fetches a card by its normalized code.
func (r *GormGiftCardRepository) GetByCode(code string) (*models.GiftCard, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// Create inserts a card. A duplicate-code insert fails on the unique index
// and the caller retries with a fresh code.
func (r *GormGiftCardRepository) Create(card *models.GiftCard) error {
	if card == nil {
		return errors.New("invalid gift card")
	}
	return r.db.Create(card).Error
}

// Update saves a card.
func (r *GormGiftCardRepository) Update(card *models.GiftCard) error {
	if card == nil {
		return errors.New("invalid gift card")
	}
	return r.db.Save(card).Error
}

// List returns cards matching the filter.
func (r *GormGiftCardRepository) List(filter GiftCardListFilter) ([]models.GiftCard, int64, error) {
	query := r.db.Model(&models.GiftCard{})
	if code := strings.ToUpper(strings.TrimSpace(filter.Code)); code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := strings.TrimSpace(filter.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	if email := strings.ToLower(strings.TrimSpace(filter.PurchaserEmail)); email != "" {
		query = query.Where("purchaser_email = ?", email)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.GiftCard
	if err := query.Order("id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// DebitBalanceCAS sets the balance and status only when the current balance
// still equals the expected value. Returns false on version mismatch.
func (r *GormGiftCardRepository) DebitBalanceCAS(id uint, expected, updated models.Money, newStatus string) (bool, error) {
	result := r.db.Model(&models.GiftCard{}).
		Where("id = ? AND current_balance = ?", id, expected).
		Updates(map[string]interface{}{
			"current_balance": updated,
			"status":          newStatus,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreditBalanceCAS is the compensation counterpart of DebitBalanceCAS.
func (r *GormGiftCardRepository) CreditBalanceCAS(id uint, expected, updated models.Money, newStatus string) (bool, error) {
	return r.DebitBalanceCAS(id, expected, updated, newStatus)
}

// ExpireDue marks active cards whose expiry has passed.
func (r *GormGiftCardRepository) ExpireDue(now time.Time) (int64, error) {
	result := r.db.Model(&models.GiftCard{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", constants.GiftCardStatusActive, now).
		Update("status", constants.GiftCardStatusExpired)
	return result.RowsAffected, result.Error
}
