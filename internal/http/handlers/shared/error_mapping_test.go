package shared

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respondStatus(t *testing.T, err error, rules []ErrorRule) int {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	RespondMapped(c, err, rules)
	return w.Code
}

func TestRespondMappedStatuses(t *testing.T) {
	cases := []struct {
		err    error
		rules  []ErrorRule
		status int
	}{
		// business-rule rejections are bad input, not 422
		{service.ErrDiscountInactive, DiscountErrorRules, http.StatusBadRequest},
		{service.ErrDiscountExpired, DiscountErrorRules, http.StatusBadRequest},
		{service.ErrDiscountUsageLimit, DiscountErrorRules, http.StatusBadRequest},
		{service.ErrDiscountMinAmount, DiscountErrorRules, http.StatusBadRequest},
		{service.ErrDiscountNotFound, DiscountErrorRules, http.StatusNotFound},
		{service.ErrDiscountConflict, DiscountErrorRules, http.StatusConflict},
		{service.ErrGiftCardNotActive, GiftCardErrorRules, http.StatusBadRequest},
		{service.ErrGiftCardExpired, GiftCardErrorRules, http.StatusBadRequest},
		{service.ErrGiftCardDepleted, GiftCardErrorRules, http.StatusBadRequest},
		{service.ErrGiftCardInsufficient, GiftCardErrorRules, http.StatusBadRequest},
		{service.ErrGiftCardNotFound, GiftCardErrorRules, http.StatusNotFound},
		{service.ErrGiftCardConflict, GiftCardErrorRules, http.StatusConflict},
		{service.ErrCartEmpty, CheckoutErrorRules, http.StatusBadRequest},
		{service.ErrCurrencyUnsupported, CheckoutErrorRules, http.StatusBadRequest},
		{service.ErrPaymentInitFailed, CheckoutErrorRules, http.StatusBadGateway},
		{service.ErrOrderTransitionInvalid, OrderErrorRules, http.StatusBadRequest},
		{service.ErrRateLimited, AuthErrorRules, http.StatusTooManyRequests},
		{service.ErrForbidden, AuthErrorRules, http.StatusForbidden},
	}
	for _, tc := range cases {
		if got := respondStatus(t, tc.err, tc.rules); got != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, got)
		}
	}
}

func TestRespondMappedMatchesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("settle order: %w", service.ErrGiftCardConflict)
	if got := respondStatus(t, wrapped, GiftCardErrorRules); got != http.StatusConflict {
		t.Fatalf("expected 409 for a wrapped conflict, got %d", got)
	}
}

func TestRespondMappedUnknownErrorIs500(t *testing.T) {
	if got := respondStatus(t, errors.New("boom"), DiscountErrorRules); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for an unmatched error, got %d", got)
	}
}

func TestNoRuleMapsToUnprocessableEntity(t *testing.T) {
	groups := [][]ErrorRule{DiscountErrorRules, GiftCardErrorRules, CheckoutErrorRules, AuthErrorRules, OrderErrorRules}
	for _, group := range groups {
		for _, rule := range group {
			if rule.Status == http.StatusUnprocessableEntity {
				t.Errorf("rule for %v still maps to 422", rule.Target)
			}
		}
	}
}
