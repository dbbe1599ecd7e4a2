package service

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
)

const giftCardDebitMaxRetries = 3

// GiftCardService owns the stored-value lifecycle: issuance, balance
// debits, compensation, and expiry. Balance changes are CAS updates on
// the balance the caller last read, paired with an append-only ledger
// row, so concurrent redemptions can never double-spend.
type GiftCardService struct {
	repo    repository.GiftCardRepository
	txnRepo repository.GiftCardTransactionRepository
	cfg     config.GiftCardConfig
}

// NewGiftCardService creates the gift card service.
func NewGiftCardService(repo repository.GiftCardRepository, txnRepo repository.GiftCardTransactionRepository, cfg config.GiftCardConfig) *GiftCardService {
	return &GiftCardService{
		repo:    repo,
		txnRepo: txnRepo,
		cfg:     normalizeGiftCardConfig(cfg),
	}
}

// IssueGiftCardInput describes a card to create. Purchased cards start
// pending and activate at settlement; promotional cards activate
// immediately.
type IssueGiftCardInput struct {
	AmountMinor     int64
	Source          string
	PurchaserEmail  string
	PurchaserName   string
	RecipientEmail  string
	RecipientName   string
	PersonalMessage string
	Notes           string
}

// AdjustGiftCardInput sets an absolute new balance. Notes are required;
// the ledger records the signed delta.
type AdjustGiftCardInput struct {
	NewBalanceMinor int64
	Notes           string
}

// GiftCardRedemption reports a settled debit.
type GiftCardRedemption struct {
	Card         *models.GiftCard
	DebitedMinor int64
	BalanceMinor int64
}

// IssueGiftCard creates a card with a fresh code.
func (s *GiftCardService) IssueGiftCard(input IssueGiftCardInput) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardCreateFailed
	}
	purchaserEmail := strings.ToLower(strings.TrimSpace(input.PurchaserEmail))
	if purchaserEmail == "" {
		return nil, ErrGiftCardInvalid
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = constants.GiftCardSourcePurchase
	}

	switch source {
	case constants.GiftCardSourcePurchase:
		if input.AmountMinor < s.cfg.MinAmountMinor || input.AmountMinor > s.cfg.MaxAmountMinor {
			return nil, ErrGiftCardInvalid
		}
	case constants.GiftCardSourcePromotional:
		if input.AmountMinor <= 0 {
			return nil, ErrGiftCardInvalid
		}
	default:
		return nil, ErrGiftCardInvalid
	}

	now := time.Now()
	expiry := now.AddDate(0, 0, s.cfg.ValidityDays)
	status := constants.GiftCardStatusPending
	var activatedAt *time.Time
	if source == constants.GiftCardSourcePromotional {
		status = constants.GiftCardStatusActive
		activated := now
		activatedAt = &activated
	}

	amount := models.MoneyFromMinor(input.AmountMinor)
	var card *models.GiftCard
	for attempt := 0; attempt < s.cfg.CodeMaxAttempts; attempt++ {
		code, err := GenerateGiftCardCode()
		if err != nil {
			return nil, ErrGiftCardCreateFailed
		}
		candidate := &models.GiftCard{
			Code:            code,
			InitialBalance:  amount,
			CurrentBalance:  amount,
			Currency:        constants.SiteCurrencyDefault,
			Status:          status,
			Source:          source,
			PurchaserEmail:  purchaserEmail,
			PurchaserName:   strings.TrimSpace(input.PurchaserName),
			RecipientEmail:  strings.ToLower(strings.TrimSpace(input.RecipientEmail)),
			RecipientName:   strings.TrimSpace(input.RecipientName),
			PersonalMessage: strings.TrimSpace(input.PersonalMessage),
			ActivatedAt:     activatedAt,
			ExpiresAt:       &expiry,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Create(candidate); err != nil {
			// unique index collision on the code, try a fresh one
			continue
		}
		card = candidate
		break
	}
	if card == nil {
		return nil, ErrGiftCardCreateFailed
	}

	s.appendLedger(card, constants.GiftCardTxnTypeIssue, input.AmountMinor, input.AmountMinor, "", input.Notes)
	return card, nil
}

// Activate flips a pending purchased card to active after its payment
// settles. Activating an already-active card is a no-op so webhook
// replays stay harmless.
func (s *GiftCardService) Activate(cardID uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || cardID == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(cardID)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if card.Status == constants.GiftCardStatusActive {
		return card, nil
	}
	if card.Status != constants.GiftCardStatusPending {
		return nil, ErrGiftCardNotActive
	}

	now := time.Now()
	card.Status = constants.GiftCardStatusActive
	card.ActivatedAt = &now
	if card.ExpiresAt == nil {
		expiry := now.AddDate(0, 0, s.cfg.ValidityDays)
		card.ExpiresAt = &expiry
	}
	card.UpdatedAt = now
	if err := s.repo.Update(card); err != nil {
		return nil, ErrGiftCardUpdateFailed
	}
	return card, nil
}

// Validate looks up a card by code for the public balance check and
// rejects anything that could not fund an order right now. Cards past
// expiry are lazily marked expired on read.
func (s *GiftCardService) Validate(code string) (*models.GiftCard, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	normalized := NormalizeGiftCardCode(code)
	if normalized == "" {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByCode(normalized)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	now := time.Now()
	s.lazyExpire(card, now)
	if err := redeemableError(card, now); err != nil {
		return nil, err
	}
	return card, nil
}

// RedeemAmount debits a card, applying at most the remaining balance.
// The debit is compare-and-swap on the balance it last read; a lost
// race re-reads and retries, and after the retry budget the caller sees
// a transient conflict it can replay.
func (s *GiftCardService) RedeemAmount(code string, amountMinor int64, orderReference string) (*GiftCardRedemption, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	if amountMinor <= 0 {
		return nil, ErrGiftCardInvalid
	}
	normalized := NormalizeGiftCardCode(code)
	if normalized == "" {
		return nil, ErrGiftCardInvalid
	}

	now := time.Now()
	for attempt := 0; attempt < giftCardDebitMaxRetries; attempt++ {
		card, err := s.repo.GetByCode(normalized)
		if err != nil {
			return nil, ErrGiftCardFetchFailed
		}
		if card == nil {
			return nil, ErrGiftCardNotFound
		}
		s.lazyExpire(card, now)
		if err := redeemableError(card, now); err != nil {
			return nil, err
		}

		balance := card.CurrentBalance.MinorUnits()
		if balance == 0 {
			return nil, ErrGiftCardDepleted
		}
		debit := models.MinMinor(amountMinor, balance)
		newBalance := balance - debit
		newStatus := card.Status
		if newBalance == 0 {
			newStatus = constants.GiftCardStatusDepleted
		}

		swapped, err := s.repo.DebitBalanceCAS(card.ID, card.CurrentBalance, models.MoneyFromMinor(newBalance), newStatus)
		if err != nil {
			return nil, ErrGiftCardUpdateFailed
		}
		if !swapped {
			continue
		}

		card.CurrentBalance = models.MoneyFromMinor(newBalance)
		card.Status = newStatus
		s.appendLedger(card, constants.GiftCardTxnTypeRedemption, -debit, newBalance, orderReference, "")
		return &GiftCardRedemption{Card: card, DebitedMinor: debit, BalanceMinor: newBalance}, nil
	}
	return nil, ErrGiftCardConflict
}

// CompensateRedemption returns a debit to the card after a downstream
// failure, for example a processor charge that could not complete after
// the card was already debited. A depleted card comes back to active.
func (s *GiftCardService) CompensateRedemption(cardID uint, amountMinor int64, orderReference string) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || cardID == 0 || amountMinor <= 0 {
		return nil, ErrGiftCardInvalid
	}
	for attempt := 0; attempt < giftCardDebitMaxRetries; attempt++ {
		card, err := s.repo.GetByID(cardID)
		if err != nil {
			return nil, ErrGiftCardFetchFailed
		}
		if card == nil {
			return nil, ErrGiftCardNotFound
		}

		balance := card.CurrentBalance.MinorUnits()
		newBalance := balance + amountMinor
		if newBalance > card.InitialBalance.MinorUnits() {
			return nil, ErrGiftCardInvalid
		}
		newStatus := card.Status
		if newStatus == constants.GiftCardStatusDepleted {
			newStatus = constants.GiftCardStatusActive
		}

		swapped, err := s.repo.CreditBalanceCAS(card.ID, card.CurrentBalance, models.MoneyFromMinor(newBalance), newStatus)
		if err != nil {
			return nil, ErrGiftCardUpdateFailed
		}
		if !swapped {
			continue
		}

		card.CurrentBalance = models.MoneyFromMinor(newBalance)
		card.Status = newStatus
		s.appendLedger(card, constants.GiftCardTxnTypeRefund, amountMinor, newBalance, orderReference, "redemption compensated")
		return card, nil
	}
	return nil, ErrGiftCardConflict
}

// AdjustBalance sets an absolute new balance from the admin surface.
// Notes are mandatory; the ledger records the signed delta.
func (s *GiftCardService) AdjustBalance(cardID uint, input AdjustGiftCardInput) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || cardID == 0 {
		return nil, ErrGiftCardInvalid
	}
	if input.NewBalanceMinor < 0 || strings.TrimSpace(input.Notes) == "" {
		return nil, ErrGiftCardInvalid
	}
	for attempt := 0; attempt < giftCardDebitMaxRetries; attempt++ {
		card, err := s.repo.GetByID(cardID)
		if err != nil {
			return nil, ErrGiftCardFetchFailed
		}
		if card == nil {
			return nil, ErrGiftCardNotFound
		}
		switch card.Status {
		case constants.GiftCardStatusActive, constants.GiftCardStatusDepleted:
		default:
			return nil, ErrGiftCardNotActive
		}

		balance := card.CurrentBalance.MinorUnits()
		delta := input.NewBalanceMinor - balance
		if delta == 0 {
			return card, nil
		}
		newStatus := card.Status
		if input.NewBalanceMinor == 0 {
			newStatus = constants.GiftCardStatusDepleted
		} else if newStatus == constants.GiftCardStatusDepleted {
			newStatus = constants.GiftCardStatusActive
		}

		swapped, err := s.repo.DebitBalanceCAS(card.ID, card.CurrentBalance, models.MoneyFromMinor(input.NewBalanceMinor), newStatus)
		if err != nil {
			return nil, ErrGiftCardUpdateFailed
		}
		if !swapped {
			continue
		}

		card.CurrentBalance = models.MoneyFromMinor(input.NewBalanceMinor)
		card.Status = newStatus
		s.appendLedger(card, constants.GiftCardTxnTypeAdjustment, delta, input.NewBalanceMinor, "", input.Notes)
		return card, nil
	}
	return nil, ErrGiftCardConflict
}

// Cancel voids a card irrevocably. Remaining value is written off in
// the ledger.
func (s *GiftCardService) Cancel(cardID uint, notes string) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || cardID == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(cardID)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if card.Status == constants.GiftCardStatusCancelled {
		return nil, ErrGiftCardNotActive
	}

	balance := card.CurrentBalance.MinorUnits()
	card.Status = constants.GiftCardStatusCancelled
	card.CurrentBalance = models.MoneyFromMinor(0)
	card.UpdatedAt = time.Now()
	if err := s.repo.Update(card); err != nil {
		return nil, ErrGiftCardUpdateFailed
	}
	if balance > 0 {
		s.appendLedger(card, constants.GiftCardTxnTypeAdjustment, -balance, 0, "", strings.TrimSpace(notes))
	}
	return card, nil
}

// MarkSent records that an admin delivered the card to its recipient.
func (s *GiftCardService) MarkSent(cardID uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || cardID == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(cardID)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if card.IsSent {
		return card, nil
	}
	card.IsSent = true
	card.UpdatedAt = time.Now()
	if err := s.repo.Update(card); err != nil {
		return nil, ErrGiftCardUpdateFailed
	}
	return card, nil
}

// GetGiftCard fetches one card with its ledger for the admin surface.
func (s *GiftCardService) GetGiftCard(id uint) (*models.GiftCard, []models.GiftCardTransaction, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, nil, ErrGiftCardNotFound
	}
	var txns []models.GiftCardTransaction
	if s.txnRepo != nil {
		txns, err = s.txnRepo.ListByGiftCard(card.ID)
		if err != nil {
			return nil, nil, ErrGiftCardFetchFailed
		}
	}
	return card, txns, nil
}

// ListGiftCards lists cards for the admin surface.
func (s *GiftCardService) ListGiftCards(filter repository.GiftCardListFilter) ([]models.GiftCard, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	cards, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	return cards, total, nil
}

// ExpireDueCards marks active cards past their expiry as expired.
func (s *GiftCardService) ExpireDueCards() (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrGiftCardFetchFailed
	}
	expired, err := s.repo.ExpireDue(time.Now())
	if err != nil {
		return 0, ErrGiftCardUpdateFailed
	}
	return expired, nil
}

func (s *GiftCardService) appendLedger(card *models.GiftCard, txnType string, amountMinor, balanceMinor int64, orderReference, notes string) {
	if s == nil || s.txnRepo == nil || card == nil {
		return
	}
	txn := &models.GiftCardTransaction{
		GiftCardID:     card.ID,
		Type:           txnType,
		Amount:         models.MoneyFromMinor(amountMinor),
		BalanceAfter:   models.MoneyFromMinor(balanceMinor),
		OrderReference: strings.TrimSpace(orderReference),
		Notes:          strings.TrimSpace(notes),
		CreatedAt:      time.Now(),
	}
	if err := s.txnRepo.Append(txn); err != nil {
		logger.Errorw("gift_card_ledger_append_failed",
			"gift_card_id", card.ID,
			"txn_type", txnType,
			"amount_minor", amountMinor,
			"error", err,
		)
	}
}

func (s *GiftCardService) lazyExpire(card *models.GiftCard, now time.Time) {
	if card == nil || card.Status != constants.GiftCardStatusActive || !card.IsExpired(now) {
		return
	}
	card.Status = constants.GiftCardStatusExpired
	card.UpdatedAt = now
	if err := s.repo.Update(card); err != nil {
		logger.Warnw("gift_card_lazy_expire_failed", "gift_card_id", card.ID, "error", err)
	}
}

func redeemableError(card *models.GiftCard, now time.Time) error {
	switch card.Status {
	case constants.GiftCardStatusActive:
	case constants.GiftCardStatusDepleted:
		return ErrGiftCardDepleted
	case constants.GiftCardStatusExpired:
		return ErrGiftCardExpired
	default:
		return ErrGiftCardNotActive
	}
	if card.IsExpired(now) {
		return ErrGiftCardExpired
	}
	return nil
}

// NormalizeGiftCardCode uppercases and trims a user-entered code.
func NormalizeGiftCardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateGiftCardCode produces GC-XXXX-XXXX-XXXX from an alphabet that
// drops the lookalike characters 0, O, 1 and I.
func GenerateGiftCardCode() (string, error) {
	alphabet := constants.GiftCardCodeAlphabet
	groups := make([]string, 0, 3)
	for g := 0; g < 3; g++ {
		var b strings.Builder
		for i := 0; i < 4; i++ {
			n, err := crand.Int(crand.Reader, big.NewInt(int64(len(alphabet))))
			if err != nil {
				return "", err
			}
			b.WriteByte(alphabet[n.Int64()])
		}
		groups = append(groups, b.String())
	}
	return fmt.Sprintf("%s-%s-%s-%s", constants.GiftCardCodePrefix, groups[0], groups[1], groups[2]), nil
}

func normalizeGiftCardConfig(cfg config.GiftCardConfig) config.GiftCardConfig {
	if cfg.MinAmountMinor <= 0 {
		cfg.MinAmountMinor = 500
	}
	if cfg.MaxAmountMinor <= 0 {
		cfg.MaxAmountMinor = 50000
	}
	if cfg.ValidityDays <= 0 {
		cfg.ValidityDays = 365
	}
	if cfg.CodeMaxAttempts <= 0 {
		cfg.CodeMaxAttempts = 5
	}
	return cfg
}
