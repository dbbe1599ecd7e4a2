package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/pii"
	"github.com/quirkcart/quirkcart/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.AdminUser{},
		&models.Customer{},
		&models.Order{},
		&models.DiscountCode{},
		&models.GiftCard{},
		&models.GiftCardTransaction{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newTestDiscountService(t *testing.T, db *gorm.DB) *DiscountService {
	t.Helper()
	return NewDiscountService(repository.NewDiscountCodeRepository(db))
}

func newTestGiftCardService(t *testing.T, db *gorm.DB) *GiftCardService {
	t.Helper()
	return NewGiftCardService(
		repository.NewGiftCardRepository(db),
		repository.NewGiftCardTransactionRepository(db),
		config.GiftCardConfig{},
	)
}

func newTestOrderService(t *testing.T, db *gorm.DB) *OrderService {
	t.Helper()
	return NewOrderService(repository.NewOrderRepository(db), pii.NewIdentityCodec(), nil, nil)
}

func testShippingConfig() config.ShippingConfig {
	return config.ShippingConfig{FlatRateMinor: 299, FreeThresholdMinor: 2000}
}
