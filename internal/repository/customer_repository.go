package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/models"

	"gorm.io/gorm"
)

// CustomerRepository is the customer data access interface.
type CustomerRepository interface {
	GetByEmail(email string) (*models.Customer, error)
	Upsert(email, name string, lastLogin *time.Time) (*models.Customer, error)
	WithTx(tx *gorm.DB) *GormCustomerRepository
}

// GormCustomerRepository is the GORM implementation.
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates the repository.
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// GetByEmail fetches a customer by normalized email.
func (r *GormCustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.Where("email = ?", email).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// Upsert creates or refreshes a customer row keyed by email.
func (r *GormCustomerRepository) Upsert(email, name string, lastLogin *time.Time) (*models.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("invalid customer email")
	}

	existing, err := r.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		customer := models.Customer{
			Email:       email,
			Name:        strings.TrimSpace(name),
			LastLoginAt: lastLogin,
		}
		if err := r.db.Create(&customer).Error; err != nil {
			return nil, err
		}
		return &customer, nil
	}

	if name = strings.TrimSpace(name); name != "" {
		existing.Name = name
	}
	if lastLogin != nil {
		existing.LastLoginAt = lastLogin
	}
	if err := r.db.Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}
