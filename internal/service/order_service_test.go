package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/pii"
	"github.com/quirkcart/quirkcart/internal/repository"
)

var (
	cardOrderNumberPattern     = regexp.MustCompile(`^PP-\d{8}-\d{4}$`)
	giftCardOrderNumberPattern = regexp.MustCompile(`^FS-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)
)

func newPaidOrder(reference string) *models.Order {
	now := time.Now()
	return &models.Order{
		Status:   constants.OrderStatusPaid,
		Currency: constants.SiteCurrencyDefault,
		Items: models.OrderItems{
			{ProductID: 1, Title: "Inflatable Flamingo", UnitPriceMinor: 1999, Quantity: 1},
		},
		Subtotal:         models.MoneyFromMinor(1999),
		Shipping:         models.MoneyFromMinor(299),
		Total:            models.MoneyFromMinor(2298),
		PaymentMethod:    constants.PaymentMethodCard,
		PaymentReference: reference,
		CustomerEmail:    "shopper@example.com",
		CustomerName:     "Sam Shopper",
		PaidAt:           &now,
	}
}

func TestPersistAssignsCardOrderNumber(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	order := newPaidOrder("cs_test_123")
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if !cardOrderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("card order number %q has the wrong shape", order.OrderNumber)
	}
	wantDate := time.Now().Format("20060102")
	if order.OrderNumber[3:11] != wantDate {
		t.Fatalf("order number %q not stamped with today", order.OrderNumber)
	}
}

func TestPersistAssignsGiftCardOrderNumber(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	order := newPaidOrder("GC-ABCD-EFGH-JKLM:x")
	order.PaymentMethod = constants.PaymentMethodGiftCard
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if !giftCardOrderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("gift card order number %q has the wrong shape", order.OrderNumber)
	}
}

func TestPersistKeepsPresetNumber(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	order := newPaidOrder("cs_test_preset")
	order.OrderNumber = "PP-20260830-0042"
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if order.OrderNumber != "PP-20260830-0042" {
		t.Fatalf("preset number replaced with %q", order.OrderNumber)
	}
}

func TestPersistRejectsDuplicatePaymentReference(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	if err := svc.Persist(newPaidOrder("cs_dup")); err != nil {
		t.Fatalf("first persist failed: %v", err)
	}
	if err := svc.Persist(newPaidOrder("cs_dup")); !errors.Is(err, ErrOrderCreateFailed) {
		t.Fatalf("expected ErrOrderCreateFailed on duplicate reference, got %v", err)
	}
}

func TestOrderNumbersUnique(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		order := newPaidOrder(fmt.Sprintf("cs_bulk_%d", i))
		if err := svc.Persist(order); err != nil {
			t.Fatalf("persist %d failed: %v", i, err)
		}
		if seen[order.OrderNumber] {
			t.Fatalf("duplicate order number %q", order.OrderNumber)
		}
		seen[order.OrderNumber] = true
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := map[string][]string{
		constants.OrderStatusPending:    {constants.OrderStatusPaid, constants.OrderStatusCancelled},
		constants.OrderStatusPaid:       {constants.OrderStatusProcessing, constants.OrderStatusCancelled, constants.OrderStatusRefunded},
		constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCancelled, constants.OrderStatusRefunded},
		constants.OrderStatusShipped:    {constants.OrderStatusDelivered, constants.OrderStatusRefunded},
		constants.OrderStatusDelivered:  {constants.OrderStatusRefunded},
		constants.OrderStatusCancelled:  {},
		constants.OrderStatusRefunded:   {},
	}
	all := []string{
		constants.OrderStatusPending, constants.OrderStatusPaid, constants.OrderStatusProcessing,
		constants.OrderStatusShipped, constants.OrderStatusDelivered, constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
	}
	for from, targets := range allowed {
		ok := make(map[string]bool)
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			if got := CanTransition(from, to); got != ok[to] {
				t.Fatalf("%s -> %s: got %v, want %v", from, to, got, ok[to])
			}
		}
	}
}

func TestUpdateStatusStampsShippedOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	order := newPaidOrder("cs_ship")
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	if _, err := svc.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusProcessing}); err != nil {
		t.Fatalf("to processing failed: %v", err)
	}
	shipped, err := svc.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusShipped})
	if err != nil {
		t.Fatalf("to shipped failed: %v", err)
	}
	if shipped.ShippedAt == nil {
		t.Fatal("ShippedAt not stamped")
	}
	firstShipped := *shipped.ShippedAt

	// same-status update is a no-op, not a transition error
	again, err := svc.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusShipped})
	if err != nil {
		t.Fatalf("repeat shipped failed: %v", err)
	}
	if !again.ShippedAt.Equal(firstShipped) {
		t.Fatal("ShippedAt restamped on repeat update")
	}

	if _, err := svc.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusPending}); !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("backwards transition: expected ErrOrderTransitionInvalid, got %v", err)
	}
}

func TestSetTrackingBlockedAfterTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	order := newPaidOrder("cs_track")
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if _, err := svc.SetTracking(order.ID, TrackingInput{TrackingNumber: "RM123", Carrier: "Royal Mail"}); err != nil {
		t.Fatalf("tracking on paid order failed: %v", err)
	}

	if _, err := svc.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.SetTracking(order.ID, TrackingInput{TrackingNumber: "RM456"}); !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("tracking on cancelled order: expected ErrOrderTransitionInvalid, got %v", err)
	}
}

func TestGetOrderByNumberScopesToCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOrderService(t, db)

	order := newPaidOrder("cs_scope")
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	if _, err := svc.GetOrderByNumber(order.OrderNumber, "shopper@example.com"); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if _, err := svc.GetOrderByNumber(order.OrderNumber, "other@example.com"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign lookup: expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.GetOrderByNumber(order.OrderNumber, ""); err != nil {
		t.Fatalf("admin lookup failed: %v", err)
	}
}

func TestPersistEncryptsPIIAtRest(t *testing.T) {
	db := newTestDB(t)
	codec, err := pii.NewCodec("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("codec init failed: %v", err)
	}
	svc := NewOrderService(repository.NewOrderRepository(db), codec, nil, nil)

	order := newPaidOrder("cs_pii")
	order.CustomerPhone = "07700 900123"
	order.ShippingAddress = "1 High Street, London"
	if err := svc.Persist(order); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	var raw models.Order
	if err := db.Session(&gorm.Session{}).Where("id = ?", order.ID).First(&raw).Error; err != nil {
		t.Fatalf("raw read failed: %v", err)
	}
	if raw.CustomerPhone == "07700 900123" || raw.ShippingAddress == "1 High Street, London" {
		t.Fatal("PII stored in plaintext")
	}

	loaded, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.CustomerPhone != "07700 900123" || loaded.ShippingAddress != "1 High Street, London" {
		t.Fatalf("PII roundtrip failed: %q / %q", loaded.CustomerPhone, loaded.ShippingAddress)
	}
}

func TestFormatMinorGBP(t *testing.T) {
	cases := map[int64]string{
		0:     "£0.00",
		5:     "£0.05",
		2298:  "£22.98",
		-1500: "-£15.00",
	}
	for minor, want := range cases {
		if got := FormatMinorGBP(minor); got != want {
			t.Fatalf("%d: got %q, want %q", minor, got, want)
		}
	}
}
