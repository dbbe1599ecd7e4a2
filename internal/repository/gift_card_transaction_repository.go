package repository

import (
	"errors"

	"github.com/quirkcart/quirkcart/internal/models"

	"gorm.io/gorm"
)

// GiftCardTransactionRepository is the append-only ledger interface.
// There is deliberately no update or delete.
type GiftCardTransactionRepository interface {
	Append(txn *models.GiftCardTransaction) error
	ListByGiftCard(giftCardID uint) ([]models.GiftCardTransaction, error)
	WithTx(tx *gorm.DB) *GormGiftCardTransactionRepository
}

// GormGiftCardTransactionRepository is the GORM implementation.
type GormGiftCardTransactionRepository struct {
	db *gorm.DB
}

// NewGiftCardTransactionRepository creates the repository.
func NewGiftCardTransactionRepository(db *gorm.DB) *GormGiftCardTransactionRepository {
	return &GormGiftCardTransactionRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormGiftCardTransactionRepository) WithTx(tx *gorm.DB) *GormGiftCardTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardTransactionRepository{db: tx}
}

// Append inserts a ledger row.
func (r *GormGiftCardTransactionRepository) Append(txn *models.GiftCardTransaction) error {
	if txn == nil {
		return errors.New("invalid gift card transaction")
	}
	return r.db.Create(txn).Error
}

// ListByGiftCard returns the ledger for one card, oldest first.
func (r *GormGiftCardTransactionRepository) ListByGiftCard(giftCardID uint) ([]models.GiftCardTransaction, error) {
	if giftCardID == 0 {
		return []models.GiftCardTransaction{}, nil
	}
	var rows []models.GiftCardTransaction
	if err := r.db.Where("gift_card_id = ?", giftCardID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
