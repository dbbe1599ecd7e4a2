package main

import (
	"time"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/pii"
	"github.com/quirkcart/quirkcart/internal/repository"
	"github.com/quirkcart/quirkcart/internal/service"
)

// Seeds a development database with a few discount codes, a
// promotional gift card, and a sample paid order.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{}); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}

	discountSvc := service.NewDiscountService(repository.NewDiscountCodeRepository(models.DB))
	giftCardSvc := service.NewGiftCardService(
		repository.NewGiftCardRepository(models.DB),
		repository.NewGiftCardTransactionRepository(models.DB),
		cfg.GiftCard,
	)
	orderSvc := service.NewOrderService(repository.NewOrderRepository(models.DB), pii.NewIdentityCodec(), nil, nil)

	expiry := time.Now().AddDate(0, 3, 0)
	seedDiscounts := []service.CreateDiscountCodeInput{
		{Code: "WELCOME10", Name: "Welcome 10%", Type: constants.DiscountTypePercentage, Value: 10, IsActive: true},
		{Code: "FIVER", Name: "Five pounds off", Type: constants.DiscountTypeFixed, Value: 500, MinOrderMinor: 2500, IsActive: true},
		{Code: "FREEPOST", Name: "Free delivery", Type: constants.DiscountTypeFreeDelivery, ExpiresAt: &expiry, IsActive: true},
	}
	for _, input := range seedDiscounts {
		if _, err := discountSvc.CreateDiscountCode(input); err != nil {
			stdLog.Printf("discount %s skipped: %v", input.Code, err)
		} else {
			stdLog.Printf("discount %s created", input.Code)
		}
	}

	card, err := giftCardSvc.IssueGiftCard(service.IssueGiftCardInput{
		AmountMinor:    5000,
		Source:         constants.GiftCardSourcePromotional,
		PurchaserEmail: "seed@example.com",
		PurchaserName:  "seed",
		RecipientEmail: "demo@example.com",
		Notes:          "development seed card",
	})
	if err != nil {
		stdLog.Printf("gift card skipped: %v", err)
	} else {
		stdLog.Printf("gift card %s created with balance %.2f", card.Code, float64(card.CurrentBalance.MinorUnits())/100)
	}

	paidAt := time.Now()
	order := &models.Order{
		Status:   constants.OrderStatusPaid,
		Currency: constants.SiteCurrencyDefault,
		Items: models.OrderItems{
			{ProductID: 1, Title: "Inflatable Flamingo", UnitPriceMinor: 1999, Quantity: 2},
		},
		Subtotal:         models.MoneyFromMinor(3998),
		Shipping:         models.MoneyFromMinor(399),
		Total:            models.MoneyFromMinor(4397),
		PaymentMethod:    constants.PaymentMethodCard,
		PaymentReference: "seed-session-001",
		CustomerEmail:    "demo@example.com",
		CustomerName:     "Demo Customer",
		PaidAt:           &paidAt,
	}
	if err := orderSvc.Persist(order); err != nil {
		stdLog.Printf("sample order skipped: %v", err)
	} else {
		stdLog.Printf("sample order %s created", order.OrderNumber)
	}
}
