package repository

import (
	"errors"
	"strings"

	"github.com/quirkcart/quirkcart/internal/models"

	"gorm.io/gorm"
)

// DiscountCodeRepository is the discount-code data access interface.
type DiscountCodeRepository interface {
	GetByID(id uint) (*models.DiscountCode, error)
	GetByCode(code string) (*models.DiscountCode, error)
	Create(code *models.DiscountCode) error
	Update(code *models.DiscountCode) error
	Delete(id uint) error
	List(filter DiscountCodeListFilter) ([]models.DiscountCode, int64, error)
	IncrementUseCountCAS(id uint, expectedUseCount int) (bool, error)
	WithTx(tx *gorm.DB) *GormDiscountCodeRepository
}

// GormDiscountCodeRepository is the GORM implementation.
type GormDiscountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository creates the repository.
func NewDiscountCodeRepository(db *gorm.DB) *GormDiscountCodeRepository {
	return &GormDiscountCodeRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormDiscountCodeRepository) WithTx(tx *gorm.DB) *GormDiscountCodeRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountCodeRepository{db: tx}
}

// GetByID fetches a discount code by id.
func (r *GormDiscountCodeRepository) GetByID(id uint) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.db.First(&code, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetByCode fetches a discount code by its normalized code.
// Codes are stored uppercase, so lookup normalizes the same way.
func (r *GormDiscountCodeRepository) GetByCode(code string) (*models.DiscountCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var row models.DiscountCode
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Create inserts a discount code.
func (r *GormDiscountCodeRepository) Create(code *models.DiscountCode) error {
	return r.db.Create(code).Error
}

// Update saves a discount code.
func (r *GormDiscountCodeRepository) Update(code *models.DiscountCode) error {
	return r.db.Save(code).Error
}

// Delete soft-deletes a discount code.
func (r *GormDiscountCodeRepository) Delete(id uint) error {
	return r.db.Delete(&models.DiscountCode{}, id).Error
}

// List returns discount codes matching the filter.
func (r *GormDiscountCodeRepository) List(filter DiscountCodeListFilter) ([]models.DiscountCode, int64, error) {
	query := r.db.Model(&models.DiscountCode{})
	if code := strings.ToUpper(strings.TrimSpace(filter.Code)); code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var codes []models.DiscountCode
	if err := query.Order("id desc").Find(&codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// IncrementUseCountCAS bumps use_count only when it still holds the
// expected value. Returns false on version mismatch so the caller can
// re-read and retry.
func (r *GormDiscountCodeRepository) IncrementUseCountCAS(id uint, expectedUseCount int) (bool, error) {
	result := r.db.Model(&models.DiscountCode{}).
		Where("id = ? AND use_count = ?", id, expectedUseCount).
		UpdateColumn("use_count", gorm.Expr("use_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
