package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/payment/paypal"
	"github.com/quirkcart/quirkcart/internal/payment/stripe"
	"github.com/quirkcart/quirkcart/internal/queue"
	"github.com/quirkcart/quirkcart/internal/repository"
)

// amountToleranceMinor is the largest re-derivation drift settled
// without an audit event.
const amountToleranceMinor = 1

// CheckoutService drives both payment phases: initiate recomputes the
// quote server-side and opens a processor session; settle authenticates
// the processor's answer and materializes the order exactly once.
type CheckoutService struct {
	orderSvc     *OrderService
	orderRepo    repository.OrderRepository
	discountSvc  *DiscountService
	giftCardSvc  *GiftCardService
	audit        *AuditService
	notifier     *NotificationService
	customerRepo repository.CustomerRepository
	stripeCfg    config.StripeConfig
	paypalCfg    config.PayPalConfig
	shippingCfg  config.ShippingConfig
	siteCfg      config.SiteConfig
}

// NewCheckoutService creates the checkout service.
func NewCheckoutService(
	orderSvc *OrderService,
	orderRepo repository.OrderRepository,
	discountSvc *DiscountService,
	giftCardSvc *GiftCardService,
	audit *AuditService,
	notifier *NotificationService,
	customerRepo repository.CustomerRepository,
	cfg *config.Config,
) *CheckoutService {
	svc := &CheckoutService{
		orderSvc:     orderSvc,
		orderRepo:    orderRepo,
		discountSvc:  discountSvc,
		giftCardSvc:  giftCardSvc,
		audit:        audit,
		notifier:     notifier,
		customerRepo: customerRepo,
	}
	if cfg != nil {
		svc.stripeCfg = cfg.Stripe
		svc.paypalCfg = cfg.PayPal
		svc.shippingCfg = cfg.Shipping
		svc.siteCfg = cfg.Site
	}
	return svc
}

// CheckoutCustomer is the shopper detail captured at checkout.
type CheckoutCustomer struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Phone           string `json:"phone,omitempty"`
	ShippingAddress string `json:"shipping_address,omitempty"`
}

// GiftCardPurchase is a gift card bought as part of the cart. The card
// is issued pending at initiation and activates at settlement.
type GiftCardPurchase struct {
	AmountMinor     int64  `json:"amount_minor"`
	RecipientEmail  string `json:"recipient_email,omitempty"`
	RecipientName   string `json:"recipient_name,omitempty"`
	PersonalMessage string `json:"personal_message,omitempty"`
}

// CheckoutInput is the phase-1 request. Client-supplied totals are
// never trusted; the quote is recomputed here.
type CheckoutInput struct {
	Items               []QuoteItem        `json:"items"`
	GiftCardPurchases   []GiftCardPurchase `json:"gift_card_purchases,omitempty"`
	DiscountCode        string             `json:"discount_code,omitempty"`
	GiftCardCode        string             `json:"gift_card_code,omitempty"`
	GiftCardAmountMinor int64              `json:"gift_card_amount_minor,omitempty"`
	Customer            CheckoutCustomer   `json:"customer"`
}

// checkoutSnapshot is the opaque metadata carried through the card
// processor and replayed at settlement.
type checkoutSnapshot struct {
	Items               []QuoteItem        `json:"items"`
	GiftCardPurchases   []GiftCardPurchase `json:"gift_card_purchases,omitempty"`
	PendingCardIDs      []uint             `json:"pending_card_ids,omitempty"`
	DiscountCode        string             `json:"discount_code,omitempty"`
	GiftCardCode        string             `json:"gift_card_code,omitempty"`
	GiftCardAmountMinor int64              `json:"gift_card_amount_minor,omitempty"`
	Customer            CheckoutCustomer   `json:"customer"`
}

// StripeCheckoutResult is the phase-1 answer for the card processor.
type StripeCheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// PayPalCheckoutResult is the phase-1 answer for the wallet processor.
type PayPalCheckoutResult struct {
	OrderID     string `json:"orderID"`
	ApprovalURL string `json:"approval_url,omitempty"`
}

// SettlementResult is the phase-2 answer.
type SettlementResult struct {
	Order            *models.Order
	AlreadySettled   bool
	RemainingBalance int64
}

// BuildCheckoutQuote recomputes the quote for a checkout input,
// evaluating the discount and gift card against current state.
func (s *CheckoutService) BuildCheckoutQuote(input CheckoutInput) (*Quote, error) {
	items, err := s.checkoutItems(input)
	if err != nil {
		return nil, err
	}

	var discount *DiscountEvaluation
	if code := strings.TrimSpace(input.DiscountCode); code != "" {
		discount, err = s.discountSvc.Evaluate(code, quoteSubtotal(items), time.Now())
		if err != nil {
			return nil, err
		}
	}

	var giftCard *models.GiftCard
	if code := strings.TrimSpace(input.GiftCardCode); code != "" {
		giftCard, err = s.giftCardSvc.Validate(code)
		if err != nil {
			return nil, err
		}
	}

	return BuildQuote(items, discount, giftCard, input.GiftCardAmountMinor, s.shippingCfg)
}

// InitiateStripe opens a card-processor session for the quoted total.
func (s *CheckoutService) InitiateStripe(ctx context.Context, input CheckoutInput) (*StripeCheckoutResult, error) {
	if err := validateCheckoutCustomer(input.Customer); err != nil {
		return nil, err
	}
	quote, err := s.BuildCheckoutQuote(input)
	if err != nil {
		return nil, err
	}
	if quote.TotalMinor <= 0 {
		// fully covered carts settle on the gift-card-only path
		return nil, ErrPaymentMethodInvalid
	}

	pendingIDs, err := s.issuePendingCards(input)
	if err != nil {
		return nil, err
	}

	metadata, err := s.buildMetadata(input, pendingIDs)
	if err != nil {
		return nil, err
	}

	cfg := s.stripeConfig()
	session, err := stripe.CreateCheckoutSession(ctx, cfg, stripe.CreateInput{
		Currency:  quoteCurrency(),
		LineItems: stripeLineItems(quote),
		Metadata:  metadata,
	})
	if err != nil {
		logger.Warnw("checkout_stripe_initiate_failed", "error", err)
		return nil, ErrPaymentInitFailed
	}
	return &StripeCheckoutResult{URL: session.URL, SessionID: session.SessionID}, nil
}

// SettleStripeWebhook authenticates and settles a card-processor
// webhook. Non-success events acknowledge without side effects.
func (s *CheckoutService) SettleStripeWebhook(headers map[string]string, body []byte) (*SettlementResult, error) {
	cfg := s.stripeConfig()
	result, err := stripe.VerifyAndParseWebhook(cfg, headers, body, time.Now())
	if err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			return nil, ErrWebhookSignatureStale
		}
		return nil, ErrWebhookInvalid
	}
	if result.Status != "success" {
		logger.Debugw("checkout_stripe_webhook_ignored", "event_type", result.EventType, "status", result.Status)
		return &SettlementResult{}, nil
	}

	reference := strings.TrimSpace(result.SessionID)
	if reference == "" {
		reference = strings.TrimSpace(result.ProviderRef)
	}
	if reference == "" {
		return nil, ErrWebhookInvalid
	}

	snapshot, err := snapshotFromMetadata(result.Metadata)
	if err != nil {
		return nil, ErrWebhookInvalid
	}
	return s.materialize(settleInput{
		snapshot:         snapshot,
		paymentMethod:    constants.PaymentMethodCard,
		paymentReference: reference,
		reportedMinor:    result.AmountMinor,
		paidAt:           result.PaidAt,
	})
}

// InitiatePayPal opens a wallet order for the quoted total.
func (s *CheckoutService) InitiatePayPal(ctx context.Context, input CheckoutInput) (*PayPalCheckoutResult, error) {
	if err := validateCheckoutCustomer(input.Customer); err != nil {
		return nil, err
	}
	quote, err := s.BuildCheckoutQuote(input)
	if err != nil {
		return nil, err
	}
	if quote.TotalMinor <= 0 {
		return nil, ErrPaymentMethodInvalid
	}

	// Wallet sessions carry no metadata, so gift-card purchases cannot be
	// pre-issued here; capture issues them directly at settlement.

	cfg := s.paypalConfig()
	created, err := paypal.CreateOrder(ctx, cfg, paypal.CreateInput{
		InvoiceID:   "quote-" + time.Now().UTC().Format("20060102150405.000000000"),
		AmountMinor: quote.TotalMinor,
		Currency:    quoteCurrency(),
		Description: s.siteCfg.Name + " order",
	})
	if err != nil {
		logger.Warnw("checkout_paypal_initiate_failed", "error", err)
		return nil, ErrPaymentInitFailed
	}
	return &PayPalCheckoutResult{OrderID: created.OrderID, ApprovalURL: created.ApprovalURL}, nil
}

// CapturePayPal settles a wallet order. The client replays the cart;
// the quote is re-derived and checked against the captured amount.
func (s *CheckoutService) CapturePayPal(ctx context.Context, walletOrderID string, input CheckoutInput) (*SettlementResult, error) {
	walletOrderID = strings.TrimSpace(walletOrderID)
	if walletOrderID == "" {
		return nil, ErrCheckoutInvalid
	}
	if err := validateCheckoutCustomer(input.Customer); err != nil {
		return nil, err
	}

	// idempotency check before touching the processor
	if existing, err := s.orderRepo.GetByPaymentReference(walletOrderID); err == nil && existing != nil {
		return &SettlementResult{Order: existing, AlreadySettled: true}, nil
	}

	cfg := s.paypalConfig()
	capture, err := paypal.CaptureOrder(ctx, cfg, walletOrderID)
	if err != nil {
		logger.Warnw("checkout_paypal_capture_failed", "wallet_order_id", walletOrderID, "error", err)
		return nil, ErrPaymentCaptureFailed
	}
	status, known := paypal.ToPaymentStatus(capture.Status)
	if !known || status != "success" {
		return nil, ErrPaymentCaptureFailed
	}

	snapshot := checkoutSnapshot{
		Items:               input.Items,
		GiftCardPurchases:   input.GiftCardPurchases,
		DiscountCode:        input.DiscountCode,
		GiftCardCode:        input.GiftCardCode,
		GiftCardAmountMinor: input.GiftCardAmountMinor,
		Customer:            input.Customer,
	}
	return s.materialize(settleInput{
		snapshot:         snapshot,
		paymentMethod:    constants.PaymentMethodWallet,
		paymentReference: walletOrderID,
		reportedMinor:    capture.AmountMinor,
		paidAt:           capture.PaidAt,
	})
}

// SettleGiftCardOnly settles a cart fully covered by a gift card,
// skipping the external processor entirely.
func (s *CheckoutService) SettleGiftCardOnly(input CheckoutInput) (*SettlementResult, error) {
	if err := validateCheckoutCustomer(input.Customer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.GiftCardCode) == "" {
		return nil, ErrCheckoutInvalid
	}
	quote, err := s.BuildCheckoutQuote(input)
	if err != nil {
		return nil, err
	}
	if quote.TotalMinor != 0 {
		return nil, ErrGiftCardInsufficient
	}

	orderNumber, err := s.orderSvc.nextOrderNumber(constants.PaymentMethodGiftCard, time.Now())
	if err != nil {
		return nil, ErrOrderCreateFailed
	}

	redemption, err := s.giftCardSvc.RedeemAmount(input.GiftCardCode, quote.GiftCardMinor, orderNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := s.newOrderRow(quote, input.Customer, constants.PaymentMethodGiftCard,
		redemption.Card.Code+":"+orderNumber, &now)
	order.OrderNumber = orderNumber
	order.Status = constants.OrderStatusPaid

	if err := s.orderSvc.Persist(order); err != nil {
		// the debit landed but the order did not; give the money back
		if _, compErr := s.giftCardSvc.CompensateRedemption(redemption.Card.ID, redemption.DebitedMinor, orderNumber); compErr != nil {
			logger.Errorw("checkout_gift_card_compensation_failed",
				"gift_card_id", redemption.Card.ID,
				"amount_minor", redemption.DebitedMinor,
				"order_number", orderNumber,
				"error", compErr,
			)
		}
		s.audit.Record(AuditEntry{
			Action:       constants.AuditActionGiftCardCompensated,
			ResourceType: "gift_card",
			ResourceID:   redemption.Card.Code,
			Details:      models.JSON{"order_number": orderNumber, "amount_minor": redemption.DebitedMinor},
		})
		return nil, ErrOrderCreateFailed
	}

	s.consumeDiscount(quote)
	s.finishSettlement(order, input.GiftCardPurchases, nil)
	return &SettlementResult{Order: order, RemainingBalance: redemption.BalanceMinor}, nil
}

type settleInput struct {
	snapshot         checkoutSnapshot
	paymentMethod    string
	paymentReference string
	reportedMinor    int64
	paidAt           *time.Time
}

// materialize is the at-most-once phase-2 core shared by both
// processors. Ordering inside one settlement is strict: gift-card debit,
// order insert, discount bump, pending card activation, notify.
func (s *CheckoutService) materialize(input settleInput) (*SettlementResult, error) {
	if existing, err := s.orderRepo.GetByPaymentReference(input.paymentReference); err == nil && existing != nil {
		return &SettlementResult{Order: existing, AlreadySettled: true}, nil
	}

	quote, err := s.rederiveQuote(input)
	if err != nil {
		return nil, err
	}

	if drift := quote.TotalMinor - input.reportedMinor; drift > amountToleranceMinor || drift < -amountToleranceMinor {
		s.audit.Record(AuditEntry{
			Action:       constants.AuditActionAmountMismatch,
			ResourceType: "payment",
			ResourceID:   input.paymentReference,
			Details: models.JSON{
				"quote_total_minor":    quote.TotalMinor,
				"reported_total_minor": input.reportedMinor,
				"payment_method":       input.paymentMethod,
			},
		})
	}

	orderNumber, err := s.orderSvc.nextOrderNumber(input.paymentMethod, time.Now())
	if err != nil {
		return nil, ErrOrderCreateFailed
	}

	var redemption *GiftCardRedemption
	if quote.GiftCardCode != "" && quote.GiftCardMinor > 0 {
		redemption, err = s.giftCardSvc.RedeemAmount(quote.GiftCardCode, quote.GiftCardMinor, orderNumber)
		if err != nil {
			return nil, err
		}
	}

	paidAt := input.paidAt
	if paidAt == nil {
		now := time.Now()
		paidAt = &now
	}
	order := s.newOrderRow(quote, input.snapshot.Customer, input.paymentMethod, input.paymentReference, paidAt)
	order.OrderNumber = orderNumber
	order.Status = constants.OrderStatusPaid
	// the processor's reported amount is authoritative for the total
	order.Total = models.MoneyFromMinor(input.reportedMinor)

	if err := s.orderSvc.Persist(order); err != nil {
		// a concurrent settlement may have won the payment_reference race
		if existing, lookupErr := s.orderRepo.GetByPaymentReference(input.paymentReference); lookupErr == nil && existing != nil {
			if redemption != nil {
				s.compensate(redemption, orderNumber)
			}
			return &SettlementResult{Order: existing, AlreadySettled: true}, nil
		}
		if redemption != nil {
			s.compensate(redemption, orderNumber)
		}
		return nil, ErrOrderCreateFailed
	}

	s.consumeDiscount(quote)
	s.finishSettlement(order, input.snapshot.GiftCardPurchases, input.snapshot.PendingCardIDs)

	result := &SettlementResult{Order: order}
	if redemption != nil {
		result.RemainingBalance = redemption.BalanceMinor
	}
	return result, nil
}

// rederiveQuote rebuilds the quote from the snapshot. A discount that
// turned invalid since initiation is dropped with an audit event; the
// settlement itself proceeds.
func (s *CheckoutService) rederiveQuote(input settleInput) (*Quote, error) {
	checkout := CheckoutInput{
		Items:               input.snapshot.Items,
		GiftCardPurchases:   input.snapshot.GiftCardPurchases,
		DiscountCode:        input.snapshot.DiscountCode,
		GiftCardCode:        input.snapshot.GiftCardCode,
		GiftCardAmountMinor: input.snapshot.GiftCardAmountMinor,
		Customer:            input.snapshot.Customer,
	}
	quote, err := s.BuildCheckoutQuote(checkout)
	if err == nil {
		return quote, nil
	}
	if checkout.DiscountCode != "" && isDiscountRejection(err) {
		s.audit.Record(AuditEntry{
			Action:       constants.AuditActionDiscountInvalidLate,
			ResourceType: "discount_code",
			ResourceID:   strings.ToUpper(strings.TrimSpace(checkout.DiscountCode)),
			Details:      models.JSON{"payment_reference": input.paymentReference, "reason": err.Error()},
		})
		checkout.DiscountCode = ""
		return s.BuildCheckoutQuote(checkout)
	}
	return nil, err
}

func (s *CheckoutService) compensate(redemption *GiftCardRedemption, orderNumber string) {
	if _, err := s.giftCardSvc.CompensateRedemption(redemption.Card.ID, redemption.DebitedMinor, orderNumber); err != nil {
		logger.Errorw("checkout_gift_card_compensation_failed",
			"gift_card_id", redemption.Card.ID,
			"amount_minor", redemption.DebitedMinor,
			"order_number", orderNumber,
			"error", err,
		)
	}
}

func (s *CheckoutService) consumeDiscount(quote *Quote) {
	if quote == nil || quote.DiscountCode == "" {
		return
	}
	dc, err := s.discountSvc.repo.GetByCode(quote.DiscountCode)
	if err != nil || dc == nil {
		logger.Warnw("checkout_discount_consume_lookup_failed", "code", quote.DiscountCode, "error", err)
		return
	}
	if err := s.discountSvc.ConsumeUse(dc.ID); err != nil {
		// the order already exists; a lost counter bump is logged, not fatal
		logger.Warnw("checkout_discount_consume_failed", "code", quote.DiscountCode, "error", err)
	}
}

// finishSettlement runs the non-fatal tail: customer upsert, pending
// card activation, and notifications.
func (s *CheckoutService) finishSettlement(order *models.Order, purchases []GiftCardPurchase, pendingCardIDs []uint) {
	if s.customerRepo != nil {
		now := time.Now()
		if _, err := s.customerRepo.Upsert(order.CustomerEmail, order.CustomerName, &now); err != nil {
			logger.Warnw("checkout_customer_upsert_failed", "email", order.CustomerEmail, "error", err)
		}
	}

	for _, cardID := range pendingCardIDs {
		card, err := s.giftCardSvc.Activate(cardID)
		if err != nil {
			logger.Errorw("checkout_gift_card_activate_failed", "gift_card_id", cardID, "order_number", order.OrderNumber, "error", err)
			continue
		}
		s.notifyGiftCardDelivery(card)
	}
	// wallet settlements carry purchases without pre-issued cards
	if len(pendingCardIDs) == 0 {
		for _, purchase := range purchases {
			card, err := s.giftCardSvc.IssueGiftCard(IssueGiftCardInput{
				AmountMinor:     purchase.AmountMinor,
				Source:          constants.GiftCardSourcePurchase,
				PurchaserEmail:  order.CustomerEmail,
				PurchaserName:   order.CustomerName,
				RecipientEmail:  purchase.RecipientEmail,
				RecipientName:   purchase.RecipientName,
				PersonalMessage: purchase.PersonalMessage,
			})
			if err != nil {
				logger.Errorw("checkout_gift_card_issue_failed", "order_number", order.OrderNumber, "error", err)
				continue
			}
			if card, err = s.giftCardSvc.Activate(card.ID); err != nil {
				logger.Errorw("checkout_gift_card_activate_failed", "order_number", order.OrderNumber, "error", err)
				continue
			}
			s.notifyGiftCardDelivery(card)
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(queue.NotifyDispatchPayload{
			Event:   constants.NotifyEventOrderConfirmation,
			Email:   order.CustomerEmail,
			RefType: "order",
			RefID:   order.ID,
			Data: map[string]string{
				"order_number": order.OrderNumber,
				"total":        FormatMinorGBP(order.Total.MinorUnits()),
			},
		})
	}
}

func (s *CheckoutService) notifyGiftCardDelivery(card *models.GiftCard) {
	if s.notifier == nil || card == nil {
		return
	}
	email := card.RecipientEmail
	if email == "" {
		email = card.PurchaserEmail
	}
	s.notifier.Notify(queue.NotifyDispatchPayload{
		Event:   constants.NotifyEventGiftCardDelivery,
		Email:   email,
		RefType: "gift_card",
		RefID:   card.ID,
		Data: map[string]string{
			"code":           card.Code,
			"amount":         FormatMinorGBP(card.InitialBalance.MinorUnits()),
			"purchaser_name": card.PurchaserName,
			"message":        card.PersonalMessage,
		},
	})
}

// issuePendingCards creates pending cards for gift cards bought in the
// cart and returns their ids for the settlement snapshot.
func (s *CheckoutService) issuePendingCards(input CheckoutInput) ([]uint, error) {
	ids := make([]uint, 0, len(input.GiftCardPurchases))
	for _, purchase := range input.GiftCardPurchases {
		card, err := s.giftCardSvc.IssueGiftCard(IssueGiftCardInput{
			AmountMinor:     purchase.AmountMinor,
			Source:          constants.GiftCardSourcePurchase,
			PurchaserEmail:  input.Customer.Email,
			PurchaserName:   input.Customer.Name,
			RecipientEmail:  purchase.RecipientEmail,
			RecipientName:   purchase.RecipientName,
			PersonalMessage: purchase.PersonalMessage,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, card.ID)
	}
	return ids, nil
}

func (s *CheckoutService) newOrderRow(quote *Quote, customer CheckoutCustomer, paymentMethod, paymentReference string, paidAt *time.Time) *models.Order {
	now := time.Now()
	return &models.Order{
		Currency:         quoteCurrency(),
		Items:            quote.ToOrderItems(),
		Subtotal:         models.MoneyFromMinor(quote.SubtotalMinor),
		DiscountCode:     quote.DiscountCode,
		DiscountAmount:   models.MoneyFromMinor(quote.DiscountMinor),
		GiftCardCode:     quote.GiftCardCode,
		GiftCardAmount:   models.MoneyFromMinor(quote.GiftCardMinor),
		Shipping:         models.MoneyFromMinor(quote.ShippingMinor),
		Total:            models.MoneyFromMinor(quote.TotalMinor),
		PaymentMethod:    paymentMethod,
		PaymentReference: paymentReference,
		CustomerEmail:    strings.ToLower(strings.TrimSpace(customer.Email)),
		CustomerName:     strings.TrimSpace(customer.Name),
		CustomerPhone:    strings.TrimSpace(customer.Phone),
		ShippingAddress:  strings.TrimSpace(customer.ShippingAddress),
		PaidAt:           paidAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *CheckoutService) buildMetadata(input CheckoutInput, pendingCardIDs []uint) (map[string]string, error) {
	snapshot := checkoutSnapshot{
		Items:               input.Items,
		GiftCardPurchases:   input.GiftCardPurchases,
		PendingCardIDs:      pendingCardIDs,
		DiscountCode:        strings.ToUpper(strings.TrimSpace(input.DiscountCode)),
		GiftCardCode:        NormalizeGiftCardCode(input.GiftCardCode),
		GiftCardAmountMinor: input.GiftCardAmountMinor,
		Customer:            input.Customer,
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return nil, ErrCheckoutInvalid
	}
	return map[string]string{"snapshot": string(encoded)}, nil
}

func snapshotFromMetadata(metadata map[string]string) (checkoutSnapshot, error) {
	var snapshot checkoutSnapshot
	raw := strings.TrimSpace(metadata["snapshot"])
	if raw == "" {
		return snapshot, ErrWebhookInvalid
	}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return snapshot, ErrWebhookInvalid
	}
	if len(snapshot.Items) == 0 && len(snapshot.GiftCardPurchases) == 0 {
		return snapshot, ErrWebhookInvalid
	}
	return snapshot, nil
}

func (s *CheckoutService) checkoutItems(input CheckoutInput) ([]QuoteItem, error) {
	items := make([]QuoteItem, 0, len(input.Items)+len(input.GiftCardPurchases))
	items = append(items, input.Items...)
	for _, purchase := range input.GiftCardPurchases {
		if purchase.AmountMinor <= 0 {
			return nil, ErrGiftCardInvalid
		}
		items = append(items, QuoteItem{
			Title:          "Gift Card",
			UnitPriceMinor: purchase.AmountMinor,
			Quantity:       1,
		})
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	return items, nil
}

func (s *CheckoutService) stripeConfig() *stripe.Config {
	siteURL := strings.TrimRight(strings.TrimSpace(s.siteCfg.URL), "/")
	return &stripe.Config{
		SecretKey:     s.stripeCfg.SecretKey,
		WebhookSecret: s.stripeCfg.WebhookSecret,
		APIBaseURL:    s.stripeCfg.APIBase,
		SuccessURL:    siteURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     siteURL + "/checkout/cancel",
		Timeout:       time.Duration(s.stripeCfg.TimeoutMS) * time.Millisecond,
	}
}

func (s *CheckoutService) paypalConfig() *paypal.Config {
	siteURL := strings.TrimRight(strings.TrimSpace(s.siteCfg.URL), "/")
	return &paypal.Config{
		ClientID:     s.paypalCfg.ClientID,
		ClientSecret: s.paypalCfg.ClientSecret,
		BaseURL:      s.paypalCfg.APIBase,
		ReturnURL:    siteURL + "/checkout/return",
		CancelURL:    siteURL + "/checkout/cancel",
		BrandName:    s.siteCfg.Name,
		Timeout:      time.Duration(s.paypalCfg.TimeoutMS) * time.Millisecond,
	}
}

func stripeLineItems(quote *Quote) []stripe.LineItem {
	// a gift-card deduction cannot be expressed as a processor line, so
	// a partially covered cart collapses to a single total line
	if quote.GiftCardMinor > 0 {
		return []stripe.LineItem{{
			Name:            "Order (gift card applied)",
			UnitAmountMinor: quote.TotalMinor,
			Quantity:        1,
		}}
	}
	items := make([]stripe.LineItem, 0, len(quote.Items)+1)
	for _, item := range quote.Items {
		items = append(items, stripe.LineItem{
			Name:            item.Title,
			UnitAmountMinor: item.UnitPriceMinor,
			Quantity:        item.Quantity,
		})
	}
	if quote.DiscountMinor > 0 {
		// spread the discount by collapsing as well
		return []stripe.LineItem{{
			Name:            "Order (discount applied)",
			UnitAmountMinor: quote.TotalMinor,
			Quantity:        1,
		}}
	}
	if quote.ShippingMinor > 0 {
		items = append(items, stripe.LineItem{
			Name:            "Shipping",
			UnitAmountMinor: quote.ShippingMinor,
			Quantity:        1,
		})
	}
	return items
}

func quoteSubtotal(items []QuoteItem) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceMinor * int64(item.Quantity)
	}
	return subtotal
}

func quoteCurrency() string {
	return constants.SiteCurrencyDefault
}

func validateCheckoutCustomer(customer CheckoutCustomer) error {
	if strings.TrimSpace(customer.Email) == "" || !strings.Contains(customer.Email, "@") {
		return ErrCheckoutInvalid
	}
	if strings.TrimSpace(customer.Name) == "" {
		return ErrCheckoutInvalid
	}
	return nil
}

func isDiscountRejection(err error) bool {
	for _, candidate := range []error{
		ErrDiscountNotFound,
		ErrDiscountInvalid,
		ErrDiscountInactive,
		ErrDiscountNotStarted,
		ErrDiscountExpired,
		ErrDiscountUsageLimit,
		ErrDiscountMinAmount,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
