package repository

import (
	"errors"
	"strings"

	"github.com/quirkcart/quirkcart/internal/models"

	"gorm.io/gorm"
)

// AdminRepository is the admin-user data access interface.
type AdminRepository interface {
	GetByID(id uint) (*models.AdminUser, error)
	GetByEmail(email string) (*models.AdminUser, error)
	Create(admin *models.AdminUser) error
	Update(admin *models.AdminUser) error
	List() ([]models.AdminUser, error)
	WithTx(tx *gorm.DB) *GormAdminRepository
}

// GormAdminRepository is the GORM implementation.
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates the repository.
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormAdminRepository) WithTx(tx *gorm.DB) *GormAdminRepository {
	if tx == nil {
		return r
	}
	return &GormAdminRepository{db: tx}
}

// GetByID fetches an admin by id.
func (r *GormAdminRepository) GetByID(id uint) (*models.AdminUser, error) {
	if id == 0 {
		return nil, nil
	}
	var admin models.AdminUser
	if err := r.db.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// GetByEmail fetches an admin by normalized email.
func (r *GormAdminRepository) GetByEmail(email string) (*models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var admin models.AdminUser
	if err := r.db.Where("email = ?", email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// Create inserts an admin.
func (r *GormAdminRepository) Create(admin *models.AdminUser) error {
	return r.db.Create(admin).Error
}

// Update saves an admin.
func (r *GormAdminRepository) Update(admin *models.AdminUser) error {
	return r.db.Save(admin).Error
}

// List returns every admin, newest first.
func (r *GormAdminRepository) List() ([]models.AdminUser, error) {
	var admins []models.AdminUser
	if err := r.db.Order("id desc").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}
