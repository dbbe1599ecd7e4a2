package service

import (
	"errors"
	"testing"
	"time"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/models"
)

func quoteIdentityHolds(t *testing.T, q *Quote) {
	t.Helper()
	if got := q.SubtotalMinor - q.DiscountMinor + q.ShippingMinor - q.GiftCardMinor; got != q.TotalMinor {
		t.Fatalf("quote identity broken: subtotal=%d discount=%d shipping=%d gift=%d total=%d",
			q.SubtotalMinor, q.DiscountMinor, q.ShippingMinor, q.GiftCardMinor, q.TotalMinor)
	}
	if q.TotalMinor < 0 {
		t.Fatalf("total went negative: %d", q.TotalMinor)
	}
	if q.DiscountMinor > q.SubtotalMinor {
		t.Fatalf("discount %d exceeds subtotal %d", q.DiscountMinor, q.SubtotalMinor)
	}
}

func TestQuotePercentageDiscountAboveFreeShippingThreshold(t *testing.T) {
	items := []QuoteItem{
		{Title: "mug", UnitPriceMinor: 1000, Quantity: 2},
		{Title: "coaster", UnitPriceMinor: 550, Quantity: 1},
	}
	discount := &DiscountEvaluation{
		Code:          &models.DiscountCode{Code: "TEN", Type: constants.DiscountTypePercentage, Value: 10},
		DiscountMinor: 255,
	}
	q, err := BuildQuote(items, discount, nil, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	if q.SubtotalMinor != 2550 || q.DiscountMinor != 255 {
		t.Fatalf("unexpected subtotal/discount: %d/%d", q.SubtotalMinor, q.DiscountMinor)
	}
	if q.ShippingMinor != 0 {
		t.Fatalf("discounted subtotal 2295 is over the 2000 threshold, got shipping %d", q.ShippingMinor)
	}
	if q.TotalMinor != 2295 {
		t.Fatalf("expected total 2295, got %d", q.TotalMinor)
	}
}

func TestQuoteFixedDiscountCappedAtSubtotal(t *testing.T) {
	items := []QuoteItem{{Title: "sticker", UnitPriceMinor: 300, Quantity: 1}}
	discount := &DiscountEvaluation{
		Code:          &models.DiscountCode{Code: "FIVE", Type: constants.DiscountTypeFixed, Value: 500},
		DiscountMinor: 500,
	}
	q, err := BuildQuote(items, discount, nil, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	if q.DiscountMinor != 300 {
		t.Fatalf("discount should cap at subtotal 300, got %d", q.DiscountMinor)
	}
	if q.TotalMinor != q.ShippingMinor {
		t.Fatalf("expected total == shipping, got total=%d shipping=%d", q.TotalMinor, q.ShippingMinor)
	}
}

func TestQuoteFreeDeliveryOverridesShipping(t *testing.T) {
	items := []QuoteItem{{Title: "lamp", UnitPriceMinor: 1500, Quantity: 1}}
	discount := &DiscountEvaluation{
		Code:         &models.DiscountCode{Code: "FREESHIP", Type: constants.DiscountTypeFreeDelivery},
		FreeDelivery: true,
	}
	q, err := BuildQuote(items, discount, nil, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	if q.ShippingMinor != 0 || q.DiscountMinor != 0 || q.TotalMinor != 1500 {
		t.Fatalf("expected shipping=0 discount=0 total=1500, got %d/%d/%d",
			q.ShippingMinor, q.DiscountMinor, q.TotalMinor)
	}
}

func TestQuoteGiftCardAbsorbsShipping(t *testing.T) {
	items := []QuoteItem{{Title: "hat", UnitPriceMinor: 1000, Quantity: 1}}
	card := &models.GiftCard{
		Code:           "GC-AAAA-BBBB-CCCC",
		Status:         constants.GiftCardStatusActive,
		CurrentBalance: models.MoneyFromMinor(5000),
	}
	q, err := BuildQuote(items, nil, card, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	// 1000 + 299 shipping, fully covered
	if q.GiftCardMinor != 1299 || q.TotalMinor != 0 {
		t.Fatalf("expected gift card 1299 and total 0, got %d/%d", q.GiftCardMinor, q.TotalMinor)
	}
}

func TestQuoteGiftCardPartialCover(t *testing.T) {
	items := []QuoteItem{{Title: "rug", UnitPriceMinor: 4000, Quantity: 1}}
	card := &models.GiftCard{
		Code:           "GC-AAAA-BBBB-CCCC",
		Status:         constants.GiftCardStatusActive,
		CurrentBalance: models.MoneyFromMinor(1500),
	}
	q, err := BuildQuote(items, nil, card, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	if q.GiftCardMinor != 1500 || q.TotalMinor != 2500 {
		t.Fatalf("expected gift card 1500 and total 2500, got %d/%d", q.GiftCardMinor, q.TotalMinor)
	}
}

func TestQuoteGiftCardCapLimitsApplication(t *testing.T) {
	items := []QuoteItem{{Title: "rug", UnitPriceMinor: 4000, Quantity: 1}}
	card := &models.GiftCard{
		Code:           "GC-AAAA-BBBB-CCCC",
		Status:         constants.GiftCardStatusActive,
		CurrentBalance: models.MoneyFromMinor(3000),
	}

	// the shopper asked to spend only 10.00 of the 30.00 balance
	q, err := BuildQuote(items, nil, card, 1000, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	if q.GiftCardMinor != 1000 || q.TotalMinor != 3000 {
		t.Fatalf("expected gift card 1000 and total 3000, got %d/%d", q.GiftCardMinor, q.TotalMinor)
	}

	// a cap above the balance still stops at the balance
	q, err = BuildQuote(items, nil, card, 5000, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	quoteIdentityHolds(t, q)
	if q.GiftCardMinor != 3000 || q.TotalMinor != 1000 {
		t.Fatalf("expected gift card 3000 and total 1000, got %d/%d", q.GiftCardMinor, q.TotalMinor)
	}

	// zero means uncapped
	q, err = BuildQuote(items, nil, card, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.GiftCardMinor != 3000 {
		t.Fatalf("zero cap must not limit the card, got %d", q.GiftCardMinor)
	}

	if _, err := BuildQuote(items, nil, card, -1, testShippingConfig()); !errors.Is(err, ErrCheckoutInvalid) {
		t.Fatalf("negative cap must be rejected, got %v", err)
	}
}

func TestQuoteRejectsEmptyAndMalformedCarts(t *testing.T) {
	if _, err := BuildQuote(nil, nil, nil, 0, testShippingConfig()); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	tooMany := make([]QuoteItem, maxQuoteLines+1)
	for i := range tooMany {
		tooMany[i] = QuoteItem{Title: "x", UnitPriceMinor: 100, Quantity: 1}
	}
	if _, err := BuildQuote(tooMany, nil, nil, 0, testShippingConfig()); !errors.Is(err, ErrCheckoutInvalid) {
		t.Fatalf("expected ErrCheckoutInvalid for oversize cart, got %v", err)
	}

	cases := []QuoteItem{
		{Title: "x", UnitPriceMinor: 100, Quantity: 0},
		{Title: "x", UnitPriceMinor: 100, Quantity: maxQuoteLineQuantity + 1},
		{Title: "x", UnitPriceMinor: 0, Quantity: 1},
		{Title: "", UnitPriceMinor: 100, Quantity: 1},
	}
	for i, item := range cases {
		if _, err := BuildQuote([]QuoteItem{item}, nil, nil, 0, testShippingConfig()); !errors.Is(err, ErrCheckoutInvalid) {
			t.Fatalf("case %d: expected ErrCheckoutInvalid, got %v", i, err)
		}
	}
}

func TestQuoteToOrderItemsPreservesLines(t *testing.T) {
	items := []QuoteItem{
		{ProductID: 7, Title: "mug", UnitPriceMinor: 1000, Quantity: 2, Variation: "large", Color: "red"},
	}
	q, err := BuildQuote(items, nil, nil, 0, testShippingConfig())
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	orderItems := q.ToOrderItems()
	if len(orderItems) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(orderItems))
	}
	got := orderItems[0]
	if got.ProductID != 7 || got.UnitPriceMinor != 1000 || got.Quantity != 2 || got.Variation != "large" {
		t.Fatalf("order item lost detail: %+v", got)
	}
}

func TestDiscountEvaluatorDeterministic(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	if _, err := svc.CreateDiscountCode(CreateDiscountCodeInput{
		Code: "TEN", Type: constants.DiscountTypePercentage, Value: 10, IsActive: true,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	now := time.Now()
	first, err := svc.Evaluate("TEN", 2550, now)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	second, err := svc.Evaluate("TEN", 2550, now)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if first.DiscountMinor != second.DiscountMinor || first.FreeDelivery != second.FreeDelivery {
		t.Fatalf("evaluator not deterministic: %+v vs %+v", first, second)
	}
}
