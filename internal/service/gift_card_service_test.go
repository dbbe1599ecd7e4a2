package service

import (
	"errors"
	"regexp"
	"testing"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/models"
)

var giftCardCodePattern = regexp.MustCompile(`^GC-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}$`)

func TestGenerateGiftCardCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateGiftCardCode()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if !giftCardCodePattern.MatchString(code) {
			t.Fatalf("code %q does not match the grammar", code)
		}
		seen[code] = true
	}
	if len(seen) < 199 {
		t.Fatalf("codes collide far too often: %d unique of 200", len(seen))
	}
}

func TestIssuePurchaseGiftCardPendingWithLedgerRow(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		AmountMinor:    2500,
		Source:         constants.GiftCardSourcePurchase,
		PurchaserEmail: "buyer@example.com",
		RecipientEmail: "friend@example.com",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if card.Status != constants.GiftCardStatusPending {
		t.Fatalf("purchased card should start pending, got %s", card.Status)
	}
	if card.ExpiresAt == nil {
		t.Fatal("expiry must be stamped at creation")
	}
	if card.CurrentBalance.MinorUnits() != 2500 || card.InitialBalance.MinorUnits() != 2500 {
		t.Fatalf("unexpected balances: %d/%d", card.CurrentBalance.MinorUnits(), card.InitialBalance.MinorUnits())
	}

	_, ledger, err := svc.GetGiftCard(card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(ledger) != 1 || ledger[0].Type != constants.GiftCardTxnTypeIssue || ledger[0].Amount.MinorUnits() != 2500 {
		t.Fatalf("expected a single issue row of +2500, got %+v", ledger)
	}
}

func TestIssuePurchaseGiftCardOutOfBounds(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)

	for _, amount := range []int64{0, 100, 100000} {
		_, err := svc.IssueGiftCard(IssueGiftCardInput{
			AmountMinor:    amount,
			Source:         constants.GiftCardSourcePurchase,
			PurchaserEmail: "buyer@example.com",
		})
		if !errors.Is(err, ErrGiftCardInvalid) {
			t.Fatalf("amount %d: expected ErrGiftCardInvalid, got %v", amount, err)
		}
	}
}

func TestActivateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)

	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		AmountMinor:    2500,
		Source:         constants.GiftCardSourcePurchase,
		PurchaserEmail: "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	activated, err := svc.Activate(card.ID)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != constants.GiftCardStatusActive || activated.ActivatedAt == nil {
		t.Fatalf("card not activated: %+v", activated)
	}
	firstActivation := *activated.ActivatedAt

	// webhook replays hit this path again
	again, err := svc.Activate(card.ID)
	if err != nil {
		t.Fatalf("second activate failed: %v", err)
	}
	if !again.ActivatedAt.Equal(firstActivation) {
		t.Fatal("replayed activation must not restamp ActivatedAt")
	}

	_, ledger, err := svc.GetGiftCard(card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(ledger) != 1 {
		t.Fatalf("activation must not append ledger rows, got %d rows", len(ledger))
	}
}

func issueActiveCard(t *testing.T, svc *GiftCardService, amountMinor int64) string {
	t.Helper()
	card, err := svc.IssueGiftCard(IssueGiftCardInput{
		AmountMinor:    amountMinor,
		Source:         constants.GiftCardSourcePromotional,
		PurchaserEmail: "admin@example.com",
		RecipientEmail: "friend@example.com",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if card.Status != constants.GiftCardStatusActive {
		t.Fatalf("promotional card should be active immediately, got %s", card.Status)
	}
	return card.Code
}

func TestRedeemPartialKeepsActive(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)
	code := issueActiveCard(t, svc, 5000)

	redemption, err := svc.RedeemAmount(code, 2000, "PP-20260830-0001")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redemption.DebitedMinor != 2000 || redemption.BalanceMinor != 3000 {
		t.Fatalf("expected debit 2000 balance 3000, got %d/%d", redemption.DebitedMinor, redemption.BalanceMinor)
	}
	if redemption.Card.Status != constants.GiftCardStatusActive {
		t.Fatalf("card should stay active, got %s", redemption.Card.Status)
	}

	_, ledger, err := svc.GetGiftCard(redemption.Card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	assertLedgerConsistent(t, ledger, redemption.Card.InitialBalance.MinorUnits(), 3000)
}

func TestRedeemCapsAtBalanceAndDepletes(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)
	code := issueActiveCard(t, svc, 1500)

	redemption, err := svc.RedeemAmount(code, 4000, "PP-20260830-0002")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redemption.DebitedMinor != 1500 || redemption.BalanceMinor != 0 {
		t.Fatalf("expected debit capped at 1500 and zero balance, got %d/%d", redemption.DebitedMinor, redemption.BalanceMinor)
	}
	if redemption.Card.Status != constants.GiftCardStatusDepleted {
		t.Fatalf("zero balance must deplete the card, got %s", redemption.Card.Status)
	}

	// a depleted card rejects further redemption
	if _, err := svc.RedeemAmount(code, 100, "PP-20260830-0003"); !errors.Is(err, ErrGiftCardDepleted) {
		t.Fatalf("expected ErrGiftCardDepleted, got %v", err)
	}
	if _, err := svc.Validate(code); !errors.Is(err, ErrGiftCardDepleted) {
		t.Fatalf("validate on depleted card: expected ErrGiftCardDepleted, got %v", err)
	}
}

func TestCompensateRedemptionRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)
	code := issueActiveCard(t, svc, 1500)

	redemption, err := svc.RedeemAmount(code, 1500, "FS-ABC123")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	restored, err := svc.CompensateRedemption(redemption.Card.ID, redemption.DebitedMinor, "FS-ABC123")
	if err != nil {
		t.Fatalf("compensate failed: %v", err)
	}
	if restored.CurrentBalance.MinorUnits() != 1500 {
		t.Fatalf("expected balance restored to 1500, got %d", restored.CurrentBalance.MinorUnits())
	}
	if restored.Status != constants.GiftCardStatusActive {
		t.Fatalf("compensation must reactivate a depleted card, got %s", restored.Status)
	}

	_, ledger, err := svc.GetGiftCard(restored.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	assertLedgerConsistent(t, ledger, restored.InitialBalance.MinorUnits(), 1500)
	if len(ledger) != 3 {
		t.Fatalf("expected issue + redemption + refund rows, got %d", len(ledger))
	}
}

func TestAdjustBalanceIsAbsoluteAndRequiresNotes(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)
	code := issueActiveCard(t, svc, 5000)
	card, err := svc.Validate(code)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if _, err := svc.AdjustBalance(card.ID, AdjustGiftCardInput{NewBalanceMinor: 1200}); !errors.Is(err, ErrGiftCardInvalid) {
		t.Fatalf("adjustment without notes must fail, got %v", err)
	}

	adjusted, err := svc.AdjustBalance(card.ID, AdjustGiftCardInput{NewBalanceMinor: 1200, Notes: "goodwill partial refund"})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if adjusted.CurrentBalance.MinorUnits() != 1200 {
		t.Fatalf("expected absolute balance 1200, got %d", adjusted.CurrentBalance.MinorUnits())
	}

	_, ledger, err := svc.GetGiftCard(card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	last := ledger[len(ledger)-1]
	if last.Type != constants.GiftCardTxnTypeAdjustment || last.Amount.MinorUnits() != -3800 {
		t.Fatalf("expected adjustment row of -3800, got %+v", last)
	}
}

func TestCancelZeroesBalance(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)
	code := issueActiveCard(t, svc, 5000)
	card, err := svc.Validate(code)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	cancelled, err := svc.Cancel(card.ID, "fraud review")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.GiftCardStatusCancelled || cancelled.CurrentBalance.MinorUnits() != 0 {
		t.Fatalf("expected cancelled with zero balance, got %s/%d", cancelled.Status, cancelled.CurrentBalance.MinorUnits())
	}

	_, ledger, err := svc.GetGiftCard(card.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	last := ledger[len(ledger)-1]
	if last.Amount.MinorUnits() != -5000 {
		t.Fatalf("cancellation must record the removed balance, got %d", last.Amount.MinorUnits())
	}

	if _, err := svc.Cancel(card.ID, "again"); err == nil {
		t.Fatal("cancelling a cancelled card must fail")
	}
}

func TestRedemptionMonotonicity(t *testing.T) {
	db := newTestDB(t)
	svc := newTestGiftCardService(t, db)
	code := issueActiveCard(t, svc, 5000)

	previous := int64(5000)
	for i, amount := range []int64{700, 1300, 900, 5000} {
		redemption, err := svc.RedeemAmount(code, amount, "PP-20260830-1000")
		if err != nil {
			t.Fatalf("redeem %d failed: %v", i, err)
		}
		if redemption.BalanceMinor > previous {
			t.Fatalf("balance increased: %d -> %d", previous, redemption.BalanceMinor)
		}
		if redemption.BalanceMinor < 0 {
			t.Fatalf("balance negative: %d", redemption.BalanceMinor)
		}
		if redemption.DebitedMinor > amount {
			t.Fatalf("debit %d exceeds request %d", redemption.DebitedMinor, amount)
		}
		previous = redemption.BalanceMinor
	}
	if previous != 0 {
		t.Fatalf("expected the card drained, got %d", previous)
	}
}

func assertLedgerConsistent(t *testing.T, ledger []models.GiftCardTransaction, initialMinor, currentMinor int64) {
	t.Helper()
	var sum int64
	for _, row := range ledger {
		sum += row.Amount.MinorUnits()
	}
	if sum != currentMinor {
		t.Fatalf("ledger sum %d does not match current balance %d", sum, currentMinor)
	}
	if len(ledger) == 0 || ledger[0].Amount.MinorUnits() != initialMinor {
		t.Fatalf("first ledger row must be the issue of %d", initialMinor)
	}
}
