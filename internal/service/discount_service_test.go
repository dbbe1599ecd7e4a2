package service

import (
	"errors"
	"testing"
	"time"

	"github.com/quirkcart/quirkcart/internal/constants"
)

func createCode(t *testing.T, svc *DiscountService, input CreateDiscountCodeInput) uint {
	t.Helper()
	dc, err := svc.CreateDiscountCode(input)
	if err != nil {
		t.Fatalf("create code %s failed: %v", input.Code, err)
	}
	return dc.ID
}

func TestEvaluatePercentage(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "TEN", Name: "Ten percent", Type: constants.DiscountTypePercentage,
		Value: 10, IsActive: true,
	})

	eval, err := svc.Evaluate("ten", 2550, time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if eval.DiscountMinor != 255 {
		t.Fatalf("expected 255, got %d", eval.DiscountMinor)
	}
	if eval.FreeDelivery {
		t.Fatal("percentage code must not grant free delivery")
	}
}

func TestEvaluatePercentageRoundsHalfUp(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "FIFTEEN", Name: "Fifteen percent", Type: constants.DiscountTypePercentage,
		Value: 15, IsActive: true,
	})

	// 15% of 999 is 149.85, rounds to 150
	eval, err := svc.Evaluate("FIFTEEN", 999, time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if eval.DiscountMinor != 150 {
		t.Fatalf("expected 150, got %d", eval.DiscountMinor)
	}
}

func TestEvaluateZeroPercentApplies(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "NOWT", Name: "Zero percent", Type: constants.DiscountTypePercentage,
		Value: 0, IsActive: true,
	})

	eval, err := svc.Evaluate("NOWT", 2550, time.Now())
	if err != nil {
		t.Fatalf("a 0%% code must still apply: %v", err)
	}
	if eval.DiscountMinor != 0 {
		t.Fatalf("expected adjustment 0, got %d", eval.DiscountMinor)
	}
	if eval.Code == nil || eval.Code.Code != "NOWT" {
		t.Fatal("evaluation must still carry the applied code")
	}
}

func TestEvaluateExpiryInstantIsExpired(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	expiry := time.Now().Add(time.Hour)
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "EDGE", Name: "Expiry edge", Type: constants.DiscountTypePercentage,
		Value: 10, ExpiresAt: &expiry, IsActive: true,
	})

	if _, err := svc.Evaluate("EDGE", 1000, expiry.Add(-time.Second)); err != nil {
		t.Fatalf("just before expiry must apply: %v", err)
	}
	if _, err := svc.Evaluate("EDGE", 1000, expiry); !errors.Is(err, ErrDiscountExpired) {
		t.Fatalf("the expiry instant itself must be expired, got %v", err)
	}
	if _, err := svc.Evaluate("EDGE", 1000, expiry.Add(time.Second)); !errors.Is(err, ErrDiscountExpired) {
		t.Fatalf("past expiry must be expired, got %v", err)
	}
}

func TestEvaluateFixedCapsAtSubtotal(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "FIVER", Name: "Five pounds off", Type: constants.DiscountTypeFixed,
		Value: 500, IsActive: true,
	})

	eval, err := svc.Evaluate("FIVER", 300, time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if eval.DiscountMinor != 300 {
		t.Fatalf("fixed discount must cap at the subtotal, got %d", eval.DiscountMinor)
	}
}

func TestEvaluateFreeDelivery(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "FREEPOST", Name: "Free delivery", Type: constants.DiscountTypeFreeDelivery,
		IsActive: true,
	})

	eval, err := svc.Evaluate("FREEPOST", 1500, time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !eval.FreeDelivery || eval.DiscountMinor != 0 {
		t.Fatalf("free delivery must zero shipping only, got delivery=%v discount=%d", eval.FreeDelivery, eval.DiscountMinor)
	}
}

func TestEvaluateRejections(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	createCode(t, svc, CreateDiscountCodeInput{
		Code: "DORMANT", Name: "Dormant", Type: constants.DiscountTypePercentage, Value: 10,
	})
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "SOON", Name: "Not yet", Type: constants.DiscountTypePercentage, Value: 10,
		StartsAt: &future, IsActive: true,
	})
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "BYGONE", Name: "Expired", Type: constants.DiscountTypePercentage, Value: 10,
		ExpiresAt: &past, IsActive: true,
	})
	createCode(t, svc, CreateDiscountCodeInput{
		Code: "BIGSPEND", Name: "Min order", Type: constants.DiscountTypePercentage, Value: 10,
		MinOrderMinor: 2500, IsActive: true,
	})

	cases := []struct {
		code string
		want error
	}{
		{"NOSUCH", ErrDiscountNotFound},
		{"DORMANT", ErrDiscountInactive},
		{"SOON", ErrDiscountNotStarted},
		{"BYGONE", ErrDiscountExpired},
		{"BIGSPEND", ErrDiscountMinAmount},
		{"", ErrDiscountInvalid},
	}
	for _, tc := range cases {
		if _, err := svc.Evaluate(tc.code, 1000, now); !errors.Is(err, tc.want) {
			t.Fatalf("code %q: expected %v, got %v", tc.code, tc.want, err)
		}
	}
}

func TestEvaluateUsageLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	id := createCode(t, svc, CreateDiscountCodeInput{
		Code: "ONESHOT", Name: "Single use", Type: constants.DiscountTypePercentage,
		Value: 10, MaxUses: 1, IsActive: true,
	})

	if _, err := svc.Evaluate("ONESHOT", 1000, time.Now()); err != nil {
		t.Fatalf("first evaluate failed: %v", err)
	}
	if err := svc.ConsumeUse(id); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if _, err := svc.Evaluate("ONESHOT", 1000, time.Now()); !errors.Is(err, ErrDiscountUsageLimit) {
		t.Fatalf("expected ErrDiscountUsageLimit, got %v", err)
	}
	if err := svc.ConsumeUse(id); !errors.Is(err, ErrDiscountUsageLimit) {
		t.Fatalf("consume past the limit: expected ErrDiscountUsageLimit, got %v", err)
	}
}

func TestConsumeUseIncrements(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	id := createCode(t, svc, CreateDiscountCodeInput{
		Code: "WELCOME", Name: "Welcome", Type: constants.DiscountTypePercentage,
		Value: 10, IsActive: true,
	})

	for i := 0; i < 3; i++ {
		if err := svc.ConsumeUse(id); err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
	}
	dc, err := svc.GetDiscountCode(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if dc.UseCount != 3 {
		t.Fatalf("expected use count 3, got %d", dc.UseCount)
	}
}

func TestCreateDiscountCodeValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	now := time.Now()
	earlier := now.Add(-time.Hour)

	bad := []CreateDiscountCodeInput{
		{Code: "", Name: "x", Type: constants.DiscountTypePercentage, Value: 10},
		{Code: "X", Name: "", Type: constants.DiscountTypePercentage, Value: 10},
		{Code: "X", Name: "x", Type: constants.DiscountTypePercentage, Value: -1},
		{Code: "X", Name: "x", Type: constants.DiscountTypePercentage, Value: 101},
		{Code: "X", Name: "x", Type: constants.DiscountTypeFixed, Value: 0},
		{Code: "X", Name: "x", Type: constants.DiscountTypeFreeDelivery, Value: 5},
		{Code: "X", Name: "x", Type: "bogof", Value: 10},
		{Code: "X", Name: "x", Type: constants.DiscountTypePercentage, Value: 10, StartsAt: &now, ExpiresAt: &earlier},
	}
	for i, input := range bad {
		if _, err := svc.CreateDiscountCode(input); err == nil {
			t.Fatalf("case %d should have been rejected", i)
		}
	}

	createCode(t, svc, CreateDiscountCodeInput{
		Code: "dupe", Name: "First", Type: constants.DiscountTypePercentage, Value: 10, IsActive: true,
	})
	if _, err := svc.CreateDiscountCode(CreateDiscountCodeInput{
		Code: "DUPE", Name: "Second", Type: constants.DiscountTypeFixed, Value: 100,
	}); err == nil {
		t.Fatal("duplicate code should have been rejected")
	}
}

func TestUpdateDiscountCodePartial(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDiscountService(t, db)
	id := createCode(t, svc, CreateDiscountCodeInput{
		Code: "SUMMER", Name: "Summer sale", Type: constants.DiscountTypePercentage,
		Value: 10, IsActive: true,
	})

	newValue := int64(20)
	inactive := false
	dc, err := svc.UpdateDiscountCode(id, UpdateDiscountCodeInput{Value: &newValue, IsActive: &inactive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if dc.Value != 20 || dc.IsActive {
		t.Fatalf("update not applied: value=%d active=%v", dc.Value, dc.IsActive)
	}
	if dc.Name != "Summer sale" {
		t.Fatalf("untouched field changed: %q", dc.Name)
	}

	overflow := int64(150)
	if _, err := svc.UpdateDiscountCode(id, UpdateDiscountCodeInput{Value: &overflow}); !errors.Is(err, ErrDiscountInvalid) {
		t.Fatalf("expected ErrDiscountInvalid for 150%%, got %v", err)
	}
}
