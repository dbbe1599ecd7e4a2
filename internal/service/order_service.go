package service

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/pii"
	"github.com/quirkcart/quirkcart/internal/queue"
	"github.com/quirkcart/quirkcart/internal/repository"
)

const orderNumberMaxAttempts = 5

// orderTransitions is the forward path plus the two lateral exits.
// Anything not listed is rejected.
var orderTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusPaid, constants.OrderStatusCancelled},
	constants.OrderStatusPaid:       {constants.OrderStatusProcessing, constants.OrderStatusCancelled, constants.OrderStatusRefunded},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCancelled, constants.OrderStatusRefunded},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered, constants.OrderStatusRefunded},
	constants.OrderStatusDelivered:  {constants.OrderStatusRefunded},
}

// OrderService owns persisted orders: numbering, the status machine,
// tracking, and the PII envelope around phone and shipping address.
type OrderService struct {
	repo     repository.OrderRepository
	codec    pii.Codec
	audit    *AuditService
	notifier *NotificationService
}

// NewOrderService creates the order service.
func NewOrderService(repo repository.OrderRepository, codec pii.Codec, audit *AuditService, notifier *NotificationService) *OrderService {
	return &OrderService{
		repo:     repo,
		codec:    codec,
		audit:    audit,
		notifier: notifier,
	}
}

// UpdateStatusInput carries the actor context for auditing.
type UpdateStatusInput struct {
	Status         string
	PrincipalID    *uint
	PrincipalEmail string
	IP             string
	RequestID      string
}

// TrackingInput sets carrier details on an order.
type TrackingInput struct {
	TrackingNumber string
	TrackingURL    string
	Carrier        string
}

// CanTransition reports whether an order may move between two statuses.
func CanTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Persist encrypts PII and inserts the order, assigning a fresh number
// when one is not already set. A daily-sequence collision retries with
// a regenerated number.
func (s *OrderService) Persist(order *models.Order) error {
	if s == nil || s.repo == nil || order == nil {
		return ErrOrderCreateFailed
	}
	if err := s.encryptPII(order); err != nil {
		return err
	}

	presetNumber := strings.TrimSpace(order.OrderNumber) != ""
	for attempt := 0; attempt < orderNumberMaxAttempts; attempt++ {
		if !presetNumber {
			number, err := s.nextOrderNumber(order.PaymentMethod, time.Now())
			if err != nil {
				return ErrOrderCreateFailed
			}
			order.OrderNumber = number
		}
		if err := s.repo.Create(order); err != nil {
			if presetNumber {
				return ErrOrderCreateFailed
			}
			// unique collision on the generated number, take the next slot
			continue
		}
		return nil
	}
	return ErrOrderCreateFailed
}

// GetOrder fetches one order with PII decrypted.
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrOrderInvalid
	}
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	s.decryptPII(order)
	return order, nil
}

// GetOrderByNumber fetches one order by its public number. The email
// guard scopes the customer portal to its own orders; admins pass "".
func (s *OrderService) GetOrderByNumber(orderNumber, customerEmail string) (*models.Order, error) {
	if s == nil || s.repo == nil {
		return nil, ErrOrderFetchFailed
	}
	order, err := s.repo.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if email := strings.ToLower(strings.TrimSpace(customerEmail)); email != "" && order.CustomerEmail != email {
		return nil, ErrOrderNotFound
	}
	s.decryptPII(order)
	return order, nil
}

// ListOrders queries orders for the admin surface, PII decrypted.
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrOrderFetchFailed
	}
	orders, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	for i := range orders {
		s.decryptPII(&orders[i])
	}
	return orders, total, nil
}

// ListCustomerOrders lists one customer's orders for the portal.
func (s *OrderService) ListCustomerOrders(email string, page, pageSize int) ([]models.Order, int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, 0, ErrOrderInvalid
	}
	return s.ListOrders(repository.OrderListFilter{
		CustomerEmail: email,
		Page:          page,
		PageSize:      pageSize,
	})
}

// UpdateStatus moves an order through the status machine. The shipped
// transition stamps ShippedAt and sends the shipping email exactly once.
func (s *OrderService) UpdateStatus(id uint, input UpdateStatusInput) (*models.Order, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrOrderInvalid
	}
	newStatus := strings.ToLower(strings.TrimSpace(input.Status))
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == newStatus {
		s.decryptPII(order)
		return order, nil
	}
	if !CanTransition(order.Status, newStatus) {
		return nil, ErrOrderTransitionInvalid
	}

	now := time.Now()
	previous := order.Status
	order.Status = newStatus
	firstShipment := newStatus == constants.OrderStatusShipped && order.ShippedAt == nil
	if firstShipment {
		order.ShippedAt = &now
	}
	order.UpdatedAt = now
	if err := s.repo.Update(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}

	s.audit.Record(AuditEntry{
		Action:         constants.AuditActionOrderStatusChange,
		PrincipalID:    input.PrincipalID,
		PrincipalEmail: input.PrincipalEmail,
		ResourceType:   "order",
		ResourceID:     order.OrderNumber,
		Details:        models.JSON{"from": previous, "to": newStatus},
		IP:             input.IP,
		RequestID:      input.RequestID,
	})

	if firstShipment {
		s.notifyShipped(order)
	}
	s.decryptPII(order)
	return order, nil
}

// SetTracking records carrier details. Allowed until the order is
// delivered, so a wrong tracking number can be corrected in flight.
func (s *OrderService) SetTracking(id uint, input TrackingInput) (*models.Order, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrOrderInvalid
	}
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	switch order.Status {
	case constants.OrderStatusDelivered, constants.OrderStatusCancelled, constants.OrderStatusRefunded:
		return nil, ErrOrderTransitionInvalid
	}

	order.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	order.TrackingURL = strings.TrimSpace(input.TrackingURL)
	order.Carrier = strings.TrimSpace(input.Carrier)
	order.UpdatedAt = time.Now()
	if err := s.repo.Update(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	s.decryptPII(order)
	return order, nil
}

// SetNotes replaces the admin notes on an order.
func (s *OrderService) SetNotes(id uint, notes string) (*models.Order, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrOrderInvalid
	}
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	order.Notes = strings.TrimSpace(notes)
	order.UpdatedAt = time.Now()
	if err := s.repo.Update(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	s.decryptPII(order)
	return order, nil
}

func (s *OrderService) notifyShipped(order *models.Order) {
	if s.notifier == nil || order == nil {
		return
	}
	s.notifier.Notify(queue.NotifyDispatchPayload{
		Event:   constants.NotifyEventShipping,
		Email:   order.CustomerEmail,
		RefType: "order",
		RefID:   order.ID,
		Data: map[string]string{
			"order_number":    order.OrderNumber,
			"carrier":         order.Carrier,
			"tracking_number": order.TrackingNumber,
			"tracking_url":    order.TrackingURL,
		},
	})
}

// nextOrderNumber allocates the public order number. Card and wallet
// orders take the dated namespace with a random suffix; gift-card-only
// orders take the short random namespace since they never reach a
// processor. The unique index fences collisions, the caller retries.
func (s *OrderService) nextOrderNumber(paymentMethod string, now time.Time) (string, error) {
	if paymentMethod == constants.PaymentMethodGiftCard {
		return generateGiftCardOrderNumber()
	}
	n, err := crand.Int(crand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", constants.OrderNumberPrefixCard, now.Format("20060102"), n.Int64()), nil
}

func generateGiftCardOrderNumber() (string, error) {
	alphabet := constants.GiftCardCodeAlphabet
	var b strings.Builder
	for i := 0; i < 6; i++ {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return constants.OrderNumberPrefixGiftCard + "-" + b.String(), nil
}

func (s *OrderService) encryptPII(order *models.Order) error {
	if s.codec == nil {
		return nil
	}
	phone, err := s.codec.Encrypt(order.CustomerPhone)
	if err != nil {
		return ErrOrderCreateFailed
	}
	address, err := s.codec.Encrypt(order.ShippingAddress)
	if err != nil {
		return ErrOrderCreateFailed
	}
	order.CustomerPhone = phone
	order.ShippingAddress = address
	return nil
}

func (s *OrderService) decryptPII(order *models.Order) {
	if s.codec == nil || order == nil {
		return
	}
	if phone, err := s.codec.Decrypt(order.CustomerPhone); err == nil {
		order.CustomerPhone = phone
	} else {
		logger.Warnw("order_pii_decrypt_failed", "order_id", order.ID, "field", "customer_phone")
		order.CustomerPhone = ""
	}
	if address, err := s.codec.Decrypt(order.ShippingAddress); err == nil {
		order.ShippingAddress = address
	} else {
		logger.Warnw("order_pii_decrypt_failed", "order_id", order.ID, "field", "shipping_address")
		order.ShippingAddress = ""
	}
}

// FormatMinorGBP renders minor units for customer-facing email copy.
func FormatMinorGBP(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return sign + "£" + strconv.FormatInt(minor/100, 10) + "." + fmt.Sprintf("%02d", minor%100)
}
